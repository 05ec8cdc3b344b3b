package extractor

import (
	"strings"

	"golang.org/x/net/html"
)

// Diagnosis classifies a page that lacks the embedded-data marker. It is
// informational; no caller changes behaviour on anything but Challenge.
type Diagnosis string

const (
	DiagnosisNone       Diagnosis = ""
	DiagnosisChallenge  Diagnosis = "challenge"
	DiagnosisJavaScript Diagnosis = "javascript"
)

// previewLen bounds how much visible text is scanned for phrases.
const previewLen = 500

var challengePhrases = []string{
	"challenge",
	"security check",
	"checking your browser",
	"just a moment",
	"verify you are human",
	"are you a robot",
	"captcha",
	"access denied",
}

var javascriptPhrases = []string{
	"enable javascript",
	"javascript is disabled",
	"requires javascript",
	"turn on javascript",
}

// Diagnose scans the visible text of rawHTML for bot-challenge and
// "enable JavaScript" phrases.
func Diagnose(rawHTML string) Diagnosis {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return DiagnosisNone
	}
	return diagnoseNode(root)
}

func diagnoseNode(root *html.Node) Diagnosis {
	text := visibleText(root)
	if len(text) > previewLen {
		text = text[:previewLen]
	}
	for _, p := range challengePhrases {
		if strings.Contains(text, p) {
			return DiagnosisChallenge
		}
	}
	for _, p := range javascriptPhrases {
		if strings.Contains(text, p) {
			return DiagnosisJavaScript
		}
	}
	return DiagnosisNone
}

// IsChallenge reports whether rawHTML looks like a bot-detection
// interstitial.
func IsChallenge(rawHTML string) bool {
	return Diagnose(rawHTML) == DiagnosisChallenge
}
