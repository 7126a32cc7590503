package prompt

import "github.com/bryanwahyu/codelens/internal/domain/analysis"

var german = Catalog{
	locale: "de",
	system: "Du bist ein Experte für Code-Analyse. Analysiere Python-Code präzise und gib klare, strukturierte Antworten. " +
		"Antworte nur auf die gestellte Aufgabe und vermeide unnötige Informationen.",
	codeHeading: "**Code:**",
	modelError:  "Fehler beim Aufruf des Modells",
	stages: map[analysis.Stage]stageText{
		analysis.StageStructure: {
			label:        "Code-Struktur",
			failureLabel: "Strukturanalyse fehlgeschlagen",
			priorHeading: "Basiere auf der folgenden Code-Struktur",
			task: "Analysiere den folgenden Python-Code und beschreibe seine Struktur. " +
				"Liste alle Klassen, Funktionen, globalen Variablen und wichtigen Importe auf. " +
				"Gib die Antwort in einer klaren, strukturierten Form (z. B. als Liste oder Abschnitte). " +
				"Beispiel:\n- Klassen: Name, Beschreibung\n- Funktionen: Name, Parameter\n- Globale Variablen: Name, Typ",
		},
		analysis.StageExplain: {
			label:        "Erklärungen zu Variablen/Funktionen",
			failureLabel: "Erklärung fehlgeschlagen",
			priorHeading: "Erklärungen",
			task: "Erkläre jede Variable und Funktion im Code detailliert. Für jede Variable gib an:\n" +
				"- Name\n- Typ (z. B. int, str)\n- Zweck\n- Verwendung\n" +
				"Für jede Funktion gib an:\n" +
				"- Name\n- Parameter\n- Rückgabewert\n- Zweck\n- Wie sie verwendet wird\n" +
				"Formatiere die Antwort klar, z. B. als Liste oder Tabelle.",
		},
		analysis.StageTechReview: {
			label:        "Technische Analyse",
			failureLabel: "Technische Analyse fehlgeschlagen",
			priorHeading: "Technische Analyse",
			task: "Führe eine technische Analyse des Codes durch. Bewerte:\n" +
				"- Lesbarkeit (z. B. Benennung, Struktur)\n" +
				"- Performance (z. B. Effizienz, Skalierbarkeit)\n" +
				"- Fehleranfälligkeit (z. B. fehlende Fehlerbehandlung)\n" +
				"- Sicherheitsaspekte (z. B. Eingabevalidierung)\n" +
				"Gib konkrete Verbesserungsvorschläge und erkläre, warum sie wichtig sind. " +
				"Formatiere die Antwort in Abschnitten für jede Kategorie.",
		},
		analysis.StageProfReview: {
			label:        "Professionelle Analyse",
			failureLabel: "Professionelle Analyse fehlgeschlagen",
			priorHeading: "Professionelle Analyse",
			task: "Führe eine professionelle Analyse durch. Bewerte:\n" +
				"- Wartbarkeit (z. B. Modularität, Dokumentation)\n" +
				"- Skalierbarkeit (z. B. Eignung für größere Projekte)\n" +
				"- Eignung für den Zweck (z. B. Erfüllt der Code die Anforderungen?)\n" +
				"- Übereinstimmung mit Best Practices (z. B. PEP 8 für Python)\n" +
				"Gib Empfehlungen, wie der Code verbessert werden kann, und vergleiche ihn mit Industriestandards. " +
				"Formatiere die Antwort in klaren Abschnitten.",
		},
	},
}
