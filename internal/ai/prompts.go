package ai

import (
	"fmt"
	"strings"
)

// SystemInstructionTemplate is the fixed instruction sent with every fallback
// completion. The single %s receives the course name.
const SystemInstructionTemplate = `Sei un assistente per il corso di %s. Rispondi SOLO su temi in-scope (rendite, ammortamenti FR/italiano, bond base, tassi). Formatta SEMPRE così:
[STIMA AI] Risultato: <valore sintetico>

Spiegazione (passo-passo):
1) ...
2) ...
3) ...

Assunzioni:
- ...

Regole: importi con 2 decimali (es: € 1.234,56), tassi con 4 decimali (es: 5,1234%%). Se i dati mancano, dichiaralo e proponi 1 sola ipotesi ragionevole.`

// ArchiveMissPromptTemplate is sent when a complete query has no archive record.
const ArchiveMissPromptTemplate = "L'utente chiede una soluzione per l'esercizio %d dell'appello %s. Se mancano dati, dichiaralo e proponi un'ipotesi ragionevole."

// SystemInstruction returns the override when set, otherwise the default
// instruction for course.
func SystemInstruction(course, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return fmt.Sprintf(SystemInstructionTemplate, course)
}

// ArchiveMissPrompt builds the synthetic prompt for an exam exercise that is
// not in the archive.
func ArchiveMissPrompt(date string, exercise int) string {
	return fmt.Sprintf(ArchiveMissPromptTemplate, exercise, date)
}
