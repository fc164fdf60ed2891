package answer

import (
	"fmt"
	"strings"

	"github.com/Prabal0202/VittaManthan/internal/domain"
)

const promptSampleLimit = 10

// languagePolicy pins the response language. Questions arrive in English,
// Hindi, and Hinglish; the answer stays English unless the user explicitly
// asks for a translation.
const languagePolicy = "Respond in English only, regardless of the language of the question, " +
	"unless the user explicitly asks for an answer in another language.\n"

func renderTransactions(txns []domain.Transaction, limit int) string {
	if limit > len(txns) {
		limit = len(txns)
	}
	var b strings.Builder
	for i, t := range txns[:limit] {
		amount := "N/A"
		if a, ok := t.Amount(); ok {
			amount = "₹" + a.StringFixed(2)
		}
		date := "N/A"
		if ts, ok := t.Time(); ok {
			date = ts.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "%d. %s | %s | %s | %s | %s\n",
			i+1, amount, orNA(t.Type()), orNA(t.Mode()), date, orNA(t.Narration()))
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func statisticsBlock(stats domain.Statistics) string {
	return fmt.Sprintf(
		"STATISTICS:\n- Matching transactions: %d\n- Total: ₹%s\n- Average: ₹%s\n- Highest: ₹%s\n- Lowest: ₹%s\n",
		stats.Count,
		stats.Total.StringFixed(2),
		stats.Average.StringFixed(2),
		stats.Max.StringFixed(2),
		stats.Min.StringFixed(2),
	)
}

// smartFullPrompt asks for a conversational answer over the filtered
// subset: statistics up front, a bounded sample of rows for grounding.
func smartFullPrompt(question string, matching []domain.Transaction, descriptions []string) string {
	stats := domain.Summarize(matching)
	filterContext := "No filters"
	if len(descriptions) > 0 {
		filterContext = strings.Join(descriptions, ", ")
	}

	return "You are a financial assistant answering a question about the user's transactions.\n" +
		languagePolicy +
		"\nUSER QUESTION: " + question + "\n\n" +
		"FILTERS APPLIED: " + filterContext + "\n\n" +
		statisticsBlock(stats) + "\n" +
		fmt.Sprintf("SAMPLE TRANSACTIONS (showing %d of %d):\n", minInt(promptSampleLimit, len(matching)), len(matching)) +
		renderTransactions(matching, promptSampleLimit) + "\n" +
		"Answer the question using the statistics and sample above. " +
		"Use a table for row listings and bullet points for figures. " +
		"If the user asked for all transactions, mention that the full list is attached separately.\n"
}

// analyticalPrompt asks for a whole-dataset summary or trend analysis.
func analyticalPrompt(question string, txns []domain.Transaction) string {
	stats := domain.Summarize(txns)
	const analyticalSampleLimit = 40

	return "You are a financial assistant producing an analysis of the user's transaction history.\n" +
		languagePolicy +
		"\nUSER QUESTION: " + question + "\n\n" +
		statisticsBlock(stats) + "\n" +
		fmt.Sprintf("TRANSACTIONS (showing %d of %d):\n", minInt(analyticalSampleLimit, len(txns)), len(txns)) +
		renderTransactions(txns, analyticalSampleLimit) + "\n" +
		"Identify patterns, trends, and notable observations relevant to the question. " +
		"Lead with a short summary, then supporting detail.\n"
}

// retrievalPrompt grounds the answer in the top-k semantically retrieved
// rows.
func retrievalPrompt(question string, hits []domain.Transaction) string {
	return "You are a financial assistant answering a specific question about the user's transactions.\n" +
		languagePolicy +
		"\nUSER QUESTION: " + question + "\n\n" +
		fmt.Sprintf("MOST RELEVANT TRANSACTIONS (%d):\n", len(hits)) +
		renderTransactions(hits, len(hits)) + "\n" +
		"Answer using only the transactions above. If they do not contain the answer, say so.\n"
}

// statisticalAnswer is deterministic: aggregate questions are answered
// from the computed statistics without a generation call.
func statisticalAnswer(stats domain.Statistics, descriptions []string) string {
	if stats.Count == 0 {
		return "No transactions matched your query. Try adjusting the filters or the date range."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching transaction(s).\n\n", stats.Count)
	fmt.Fprintf(&b, "- Total: ₹%s\n", stats.Total.StringFixed(2))
	fmt.Fprintf(&b, "- Average: ₹%s\n", stats.Average.StringFixed(2))
	fmt.Fprintf(&b, "- Highest: ₹%s\n", stats.Max.StringFixed(2))
	fmt.Fprintf(&b, "- Lowest: ₹%s\n", stats.Min.StringFixed(2))
	if len(descriptions) > 0 {
		fmt.Fprintf(&b, "\nFilters applied: %s", strings.Join(descriptions, "; "))
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
