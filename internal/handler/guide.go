package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// GuideHandler auto-checks the task guide's exercises by statically
// inspecting the learner's front-end files. Each task either reads
// public/style.css or public/index.html and regex-matches for the expected
// change, or is a "self-check" the learner verifies visually.
//
// This is deliberately dumb: no CSS parser, no DOM — a couple of anchored
// regexes against file contents, exactly as much machinery as a yes/no
// "did you edit this line" check needs.
type GuideHandler struct {
	stylePath string // path to public/style.css
	htmlPath  string // path to public/index.html
	logger    *slog.Logger
}

func NewGuideHandler(stylePath, htmlPath string, logger *slog.Logger) *GuideHandler {
	return &GuideHandler{stylePath: stylePath, htmlPath: htmlPath, logger: logger}
}

// CheckResult is the response body for every guide check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Default values the tasks ask the learner to change. A check passes when
// the current value differs from the default.
const (
	defaultBgPage     = "#f8f9ff"
	defaultColourDone = "#4ecb71"
	minCardRadius     = 20
)

// CSS custom-property patterns. (?i) for case-insensitive property names
// isn't needed — CSS variables are case-sensitive — but values are lowered
// before comparison so #F8F9FF still counts as "unchanged".
var (
	bgPagePattern     = regexp.MustCompile(`--bg-page\s*:\s*([^;]+)`)
	cardRadiusPattern = regexp.MustCompile(`--card-radius\s*:\s*([^;]+)`)
	colourDonePattern = regexp.MustCompile(`--colour-done\s*:\s*([^;]+)`)
	pageTitlePattern  = regexp.MustCompile(`(?i)<h2[^>]*>.*My Daily Habits.*</h2>`)
	footerPattern     = regexp.MustCompile(`(?i)<footer[\s>]`)
)

// HandleCheck runs one task's check.
//
// HTTP: GET /api/guide/check/{taskNumber}
// RESPONSE: {"passed": true, "message": "Nice! ..."}
//
// Note: unknown task numbers and failed checks are still 200 responses —
// "not passed" is an answer, not an HTTP error.
func (g *GuideHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	taskNum, err := strconv.Atoi(r.PathValue("taskNumber"))
	if err != nil {
		writeJSON(w, http.StatusOK, CheckResult{
			Passed:  false,
			Message: "Unknown task number: " + r.PathValue("taskNumber"),
		})
		return
	}

	writeJSON(w, http.StatusOK, g.check(taskNum))
}

func (g *GuideHandler) check(taskNum int) CheckResult {
	switch taskNum {

	// Task 1: change the page background colour away from the default.
	case 1:
		return g.checkCSSVarChanged(bgPagePattern, "--bg-page", defaultBgPage,
			"background colour")

	// Task 2: make the cards more rounded (> 20px).
	case 2:
		css, fail := g.readFile(g.stylePath, "public/style.css")
		if fail != nil {
			return *fail
		}
		m := cardRadiusPattern.FindStringSubmatch(css)
		if m == nil {
			return CheckResult{Passed: false,
				Message: "Could not find --card-radius variable in style.css"}
		}
		value := strings.TrimSpace(m[1])
		num, err := strconv.Atoi(strings.TrimSuffix(value, "px"))
		if err != nil || num <= minCardRadius {
			return CheckResult{Passed: false, Message: fmt.Sprintf(
				"The --card-radius is %s. Make it larger than %dpx (try 32px or 40px)!",
				value, minCardRadius)}
		}
		return CheckResult{Passed: true, Message: fmt.Sprintf(
			"Great! Cards are now %s rounded — looking smooth!", value)}

	// Task 3: change the page font. Self-check.
	case 3:
		return CheckResult{Passed: true, Message: "This is a self-check task. " +
			"If you can see a different font in the browser, you did it!"}

	// Task 4: add an <h2> page title above the habit grid.
	case 4:
		html, fail := g.readFile(g.htmlPath, "public/index.html")
		if fail != nil {
			return *fail
		}
		if !pageTitlePattern.MatchString(html) {
			return CheckResult{Passed: false, Message: `Could not find an <h2> ` +
				`element containing "My Daily Habits" in index.html.`}
		}
		return CheckResult{Passed: true,
			Message: "Awesome! The page title is showing up. Looking professional!"}

	// Task 5: add a <footer>.
	case 5:
		html, fail := g.readFile(g.htmlPath, "public/index.html")
		if fail != nil {
			return *fail
		}
		if !footerPattern.MatchString(html) {
			return CheckResult{Passed: false, Message: "Could not find a <footer> " +
				"element in index.html. Add one inside the .app container!"}
		}
		return CheckResult{Passed: true,
			Message: "Footer found! Your page now has a proper ending."}

	// Task 6: change the check-in button colour away from the default.
	case 6:
		return g.checkCSSVarChanged(colourDonePattern, "--colour-done",
			defaultColourDone, "check-in button colour")

	// Tasks 7 and 8: self-checks (empty-state message, second streak emoji).
	case 7:
		return CheckResult{Passed: true, Message: "This is a self-check task. " +
			"If you see your new message when there are no habits, you did it!"}
	case 8:
		return CheckResult{Passed: true, Message: "This is a self-check task. " +
			"If you can see a second emoji next to the streak number, you nailed it!"}

	default:
		return CheckResult{Passed: false,
			Message: fmt.Sprintf("Unknown task number: %d", taskNum)}
	}
}

// checkCSSVarChanged passes when the named CSS variable exists and its
// value is no longer defaultValue (case-insensitive).
func (g *GuideHandler) checkCSSVarChanged(pattern *regexp.Regexp, varName, defaultValue, what string) CheckResult {
	css, fail := g.readFile(g.stylePath, "public/style.css")
	if fail != nil {
		return *fail
	}
	m := pattern.FindStringSubmatch(css)
	if m == nil {
		return CheckResult{Passed: false, Message: fmt.Sprintf(
			"Could not find %s variable in style.css", varName)}
	}
	value := strings.ToLower(strings.TrimSpace(m[1]))
	if value == defaultValue {
		return CheckResult{Passed: false, Message: fmt.Sprintf(
			"The %s value is still the default (%s). Change it to a different colour!",
			varName, defaultValue)}
	}
	return CheckResult{Passed: true, Message: fmt.Sprintf(
		"Nice! You changed the %s to %s!", what, value)}
}

// readFile reads a learner file. A non-nil second return is the failure to
// report — the message names the file the learner should have, since a
// missing file usually means the server was started from the wrong
// directory.
func (g *GuideHandler) readFile(path, displayName string) (string, *CheckResult) {
	data, err := os.ReadFile(path)
	if err != nil {
		g.logger.Warn("guide check could not read file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return "", &CheckResult{Passed: false,
			Message: "Could not read " + displayName}
	}
	return string(data), nil
}
