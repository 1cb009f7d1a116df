package resolver

import (
	"fmt"
	"html"

	"github.com/edgard/finmatbot/internal/archive"
	"github.com/edgard/finmatbot/internal/query"
)

const emptyField = "—"

// officialReply renders an archive record as Telegram HTML.
func officialReply(q query.Query, rec archive.Record) string {
	return fmt.Sprintf("<b>[UFFICIALE] Risultato</b> (Appello %s, Esercizio %d)\n%s\n\n"+
		"<b>Spiegazione (tua)</b>\n%s\n\n"+
		"<b>Titolo:</b> %s\n"+
		"<b>Note:</b> %s\n"+
		"<b>Versione:</b> %s",
		q.Date, q.Exercise,
		html.EscapeString(rec.ResultShort),
		orEmpty(html.EscapeString(rec.NumberedSteps())),
		html.EscapeString(rec.Title),
		orEmpty(html.EscapeString(rec.Notes)),
		html.EscapeString(rec.Version))
}

// estimateReply escapes generated text so it cannot break the HTML parse mode.
func estimateReply(answer string) string {
	return html.EscapeString(answer)
}

func orEmpty(s string) string {
	if s == "" {
		return emptyField
	}
	return s
}
