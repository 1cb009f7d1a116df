package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultTelegramMode           = "webhook"
	DefaultTelegramRequestTimeout = 20 * time.Second

	DefaultServerAddr           = ":8000"
	DefaultServerWebhookPath    = "/api/telegram/webhook"
	DefaultServerHandlerTimeout = 3 * time.Minute

	DefaultAIProvider    = "openai"
	DefaultAIModel       = "gpt-4o-mini"
	DefaultAITemperature = 0.2
	DefaultAITimeout     = 2 * time.Minute
	DefaultAIMaxRetries  = 0
	DefaultAIRetryDelay  = 2 * time.Second

	DefaultAIBreakerFailures = 5
	DefaultAIBreakerCooldown = time.Minute

	DefaultCourseName         = "Matematica Finanziaria"
	DefaultCourseTotalQuota   = 300
	DefaultCourseUnlockSecret = "sblocco"

	DefaultArchivePath = "archive.csv"
	DefaultDBPath      = "bot.db"

	DefaultDedupBackend = "memory"
	DefaultDedupTTL     = 24 * time.Hour
)

// DefaultMessages are Italian, matching the course audience.
var DefaultMessages = MessagesConfig{
	Welcome: "Ciao! Sono il bot di <b>{course}</b>.\n" +
		"Per usare il bot devi prima sbloccarlo con la parola-chiave.\n" +
		"Usa: <code>/unlock {secret}</code>\n\n" +
		"Dopo lo sblocco puoi chiedere: <i>Appello YYYY-MM-DD es N</i> oppure esercizi.\n" +
		"Comandi: /quota, /policy, /help",
	UnlockOK:     "✅ Sblocco riuscito! Ora puoi usare il bot.",
	UnlockFailed: "❌ Parola-chiave errata. Riprova.",
	QuotaStatus:  "Hai usato <b>{used}/{quota}</b> risposte totali.",
	Policy: "Rispondo solo su appelli passati ed esercizi di <b>{course}</b>.\n" +
		"Le risposte dall'archivio sono <b>[UFFICIALE]</b>. Altrimenti fornisco <b>[STIMA AI]</b>.",
	Help:          "Ok! Ti metto in contatto con un tutor umano. (Handoff verrà attivato dopo il MVP)",
	Locked:        "🔒 Bot bloccato. Sbloccalo con: <code>/unlock {secret}</code>",
	QuotaExceeded: "Hai esaurito la tua quota totale. Digita /help per parlare con un tutor.",
	OutOfScope:    "Tema fuori ambito. Supporto solo: appelli passati ed esercizi di {course}.",
	ProviderError: "⚠️ Non riesco a generare una risposta in questo momento. Riprova più tardi.",
}

// DefaultTasks schedules an hourly archive reload and a weekly VACUUM.
var DefaultTasks = map[string]TaskConfig{
	"archive_reload":  {Enabled: true, Schedule: "0 0 * * * *"},
	"sql_maintenance": {Enabled: true, Schedule: "0 30 4 * * 0"},
}
