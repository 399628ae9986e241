// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The "chat" command: the widget flow as a line-mode REPL.
//
// Command: chat
//
// Examples:
//   ckyc-assist chat                   Start a session (default language)
//   ckyc-assist chat --lang hi         Preselect Hindi
//   ckyc-assist chat --plain-text      No ANSI styling
//
// Interactive Commands:
//   /help            Show available commands
//   /menu            Return to the main menu
//   /end             End the chat and leave feedback
//   /new             Start a new session
//   /export [FORMAT] Save the transcript (markdown, html, json)
//   /quit            Exit
//   Ctrl+D           Exit
//
// Option lists are answered with their number; every other screen takes the
// line as typed.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ckyc-assist/internal/config"
	"github.com/jeranaias/ckyc-assist/internal/export"
	"github.com/jeranaias/ckyc-assist/internal/flow"
	"github.com/jeranaias/ckyc-assist/internal/logging"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and input history for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor and loads the history file.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, _ := config.HistoryPath()
	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file owner-only.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// settleTimeout bounds how long the REPL waits for redirects and the
// thank-you timer before prompting again.
const settleTimeout = flow.ThankYouDelay + 2*time.Second

// ChatConfig configures a line-mode session.
type ChatConfig struct {
	Backend flow.Backend
	Out     io.Writer

	Language  string
	PlainText bool

	ExportDir    string
	ExportFormat string

	Metrics *telemetry.Metrics
	Logger  *logrus.Entry
}

// ChatSession drives one controller from line input. Every controller call
// and every read of its state happens on the loop's event goroutine.
type ChatSession struct {
	cfg  ChatConfig
	out  io.Writer
	loop *flow.Loop
	log  *transcript.Log
	ctrl *flow.Controller

	epoch uint64
	shown map[string]bool

	styles chatStyles
}

// NewChatSession creates a session on the language screen. Nothing runs
// until Run.
func NewChatSession(cfg ChatConfig) (*ChatSession, error) {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = "markdown"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Component("chat")
	}

	loop := flow.NewLoop()
	log := transcript.NewLog()
	ctrl, err := flow.New(flow.Config{
		Backend:    cfg.Backend,
		Renderer:   transcript.Tee(transcript.NewPrinter(cfg.Out, cfg.PlainText), log),
		Runner:     loop,
		Language:   cfg.Language,
		WidgetOpen: true,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return nil, &CommandError{Command: "chat", Action: "start", Err: err}
	}

	return &ChatSession{
		cfg:    cfg,
		out:    cfg.Out,
		loop:   loop,
		log:    log,
		ctrl:   ctrl,
		shown:  make(map[string]bool),
		styles: newChatStyles(cfg.PlainText),
	}, nil
}

// Run reads lines until /quit, end of input or ctx is done. read is usually
// ChatCLI.ReadInput.
func (s *ChatSession) Run(ctx context.Context, read func(prompt string) (string, error)) error {
	s.loop.Start()
	defer s.loop.Stop()

	var id string
	s.loop.Do(func() {
		id = s.ctrl.Session().ID
		s.epoch = s.ctrl.Snapshot().Epoch
		s.printScreen()
		s.render()
	})
	s.cfg.Logger.WithField("session", id).Info("line-mode session started")

	for ctx.Err() == nil {
		line, err := read(s.prompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return &CommandError{Command: "chat", Action: "read input", Err: err}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := s.command(line); quit {
				return nil
			}
		} else {
			var actErr error
			s.loop.Do(func() { actErr = s.act(line) })
			s.report(actErr)
		}
		s.settle(ctx)
	}
	return nil
}

// prompt names the screen waiting for input.
func (s *ChatSession) prompt() string {
	p := "> "
	s.loop.Do(func() {
		if s.ctrl.Screen() == flow.ScreenChat {
			p = s.ctrl.Session().Language + "> "
		}
	})
	return s.styles.prompt.Render(p)
}

// =============================================================================
// INPUT
// =============================================================================

// act routes one line to the active screen. Runs on the event goroutine.
func (s *ChatSession) act(line string) error {
	snap := s.ctrl.Snapshot()

	switch snap.Session.Screen {
	case flow.ScreenChat:
		return s.ctrl.SendChatMessage(line)
	case flow.ScreenRegistration:
		return s.ctrl.CheckRegistrationStatus(line)
	case flow.ScreenMismatch:
		return s.ctrl.CheckMismatch(line)
	case flow.ScreenWallet:
		if snap.Wallet.OptionsVisible {
			if choice, ok := pick(line, s.ctrl.Choices()); ok {
				return choice.Select()
			}
		}
		return s.ctrl.RevealWalletOptions(line)
	case flow.ScreenFeedback:
		if snap.Feedback.TextBoxVisible && !snap.Feedback.Submitting {
			if err := s.ctrl.SetFeedbackText(line); err != nil {
				return err
			}
			return s.ctrl.SubmitFeedback()
		}
	}

	choices := s.ctrl.Choices()
	if len(choices) == 0 {
		return nil
	}
	choice, ok := pick(line, choices)
	if !ok {
		return &flow.ValidationError{Field: "choice", Message: fmt.Sprintf("enter a number from 1 to %d", len(choices))}
	}
	return choice.Select()
}

// pick returns the choice numbered by line, counting from 1.
func pick(line string, choices []flow.Choice) (flow.Choice, bool) {
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(choices) {
		return flow.Choice{}, false
	}
	return choices[n-1], true
}

// report prints an action error. Wrong-screen errors mean the screen moved
// on and are dropped; the wallet prints its own warning.
func (s *ChatSession) report(err error) {
	var ve *flow.ValidationError
	switch {
	case err == nil, flow.IsWrongScreen(err):
	case errors.As(err, &ve) && ve.Field == "re_number":
	case flow.IsValidation(err):
		fmt.Fprintln(s.out, s.styles.warning.Render(err.Error()))
	default:
		s.cfg.Logger.WithError(err).Warn("line-mode action failed")
		fmt.Fprintln(s.out, s.styles.err.Render(err.Error()))
	}
}

// command runs a slash command and reports whether the session should end.
func (s *ChatSession) command(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/q", "/exit":
		return true
	case "/help", "/h":
		s.printHelp()
	case "/menu":
		var err error
		s.loop.Do(func() { err = s.ctrl.ReturnToMenu() })
		if flow.IsWrongScreen(err) {
			fmt.Fprintln(s.out, s.styles.dim.Render("The menu is not available yet."))
		}
	case "/end":
		var err error
		s.loop.Do(func() { err = s.ctrl.EndChat() })
		if flow.IsWrongScreen(err) {
			fmt.Fprintln(s.out, s.styles.dim.Render("/end is only available in the chat."))
		}
	case "/new":
		s.loop.Do(func() { s.ctrl.ResetSession() })
	case "/export":
		format := s.cfg.ExportFormat
		if len(fields) > 1 {
			format = fields[1]
		}
		s.export(format)
	default:
		fmt.Fprintln(s.out, s.styles.warning.Render("Unknown command "+fields[0]+"; try /help"))
	}
	return false
}

// export saves the chat transcript.
func (s *ChatSession) export(format string) {
	entries := s.log.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, s.styles.dim.Render("Nothing to save yet."))
		return
	}

	opts := export.DefaultOptions()
	if s.cfg.ExportDir != "" {
		opts.OutputDir = s.cfg.ExportDir
	}
	opts.Rich = !s.cfg.PlainText

	var title, language string
	s.loop.Do(func() {
		title = s.ctrl.Label("welcome_title")
		language = s.ctrl.Session().Language
	})

	exporter, err := export.ForFormat(format, opts)
	if err == nil {
		var path string
		path, err = export.ExportToFile(export.NewTranscript(title, language, entries), exporter, opts)
		if err == nil {
			fmt.Fprintln(s.out, s.styles.result.Render("Saved "+path))
			return
		}
	}
	s.cfg.Logger.WithError(err).Warn("transcript export failed")
	fmt.Fprintln(s.out, s.styles.err.Render("Export failed: "+err.Error()))
}

// =============================================================================
// OUTPUT
// =============================================================================

// settle waits for backend replies, then for redirect timers, printing what
// changed after each.
func (s *ChatSession) settle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	_ = s.loop.WaitIdle(ctx)
	s.loop.Do(s.render)

	for {
		var timers int
		s.loop.Do(func() { timers = s.ctrl.PendingTimers() })
		if timers == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
		_ = s.loop.WaitIdle(ctx)
		s.loop.Do(s.render)
	}
}

// render prints what is new since the last call. Runs on the event goroutine.
func (s *ChatSession) render() {
	snap := s.ctrl.Snapshot()
	if snap.Epoch != s.epoch {
		s.epoch = snap.Epoch
		s.shown = make(map[string]bool)
		s.printScreen()
	}

	switch snap.Session.Screen {
	case flow.ScreenRegistration, flow.ScreenMismatch:
		s.printResult(snap.Lookup(snap.Session.Screen))
	case flow.ScreenWallet:
		if snap.Wallet.Warning != "" {
			s.once("warning:"+snap.Wallet.Warning, s.styles.warning.Render(snap.Wallet.Warning))
		}
		if snap.Wallet.OptionsVisible {
			s.once("options", s.styles.dim.Render(s.ctrl.Label("wallet_options"))+"\n"+s.choiceList())
		}
		s.printResult(snap.WalletResult)
	case flow.ScreenFeedback:
		fb := snap.Feedback
		if fb.TextBoxVisible {
			s.once("textbox", s.styles.dim.Render("Tell us what went wrong, then press Enter."))
		}
		if fb.Subtitle != "" {
			s.once("subtitle:"+fb.Subtitle, s.styles.dim.Render(fb.Subtitle))
		}
		if fb.ResponseVisible {
			s.once("response:"+fb.Response, s.styles.result.Render(fb.Response))
		}
	}
}

// printScreen prints the heading and option list of the active screen.
func (s *ChatSession) printScreen() {
	c := s.ctrl
	var heading string

	switch c.Screen() {
	case flow.ScreenLanguage:
		fmt.Fprintln(s.out, s.styles.title.Render(c.Label("welcome_title")))
		fmt.Fprintln(s.out, c.Label("welcome_msg"))
		heading = c.Label("select_language")
	case flow.ScreenUserType:
		heading = c.Label("select_user_type")
	case flow.ScreenMenu:
		heading = c.Label("select_option")
	case flow.ScreenAPIHub:
		heading = c.Label("check_status")
	case flow.ScreenRegistration:
		heading = c.Label("enter_reg_number")
	case flow.ScreenWallet:
		heading = c.Label("enter_re_number")
	case flow.ScreenMismatch:
		heading = c.Label("enter_ckyc_number")
	case flow.ScreenChat:
		heading = c.Label("type_question") + s.styles.dim.Render("  (/end to finish)")
	case flow.ScreenFeedback:
		heading = c.Label("feedback_prompt")
	case flow.ScreenThankYou:
		heading = c.Label("thank_you")
	}

	fmt.Fprintln(s.out, s.styles.separator.Render(strings.Repeat("-", 40)))
	fmt.Fprintln(s.out, s.styles.heading.Render(heading))
	if list := s.choiceList(); list != "" {
		fmt.Fprint(s.out, list)
	}
}

// printResult prints a settled lookup result once.
func (s *ChatSession) printResult(res flow.LookupResult) {
	if !res.Visible || res.Pending {
		return
	}
	if res.IsError {
		s.once("result:"+res.Text, s.styles.err.Render(res.Text))
		return
	}
	s.once("result:"+res.Text, s.styles.result.Render(res.Text))
}

// choiceList formats the active option list, one numbered line each.
func (s *ChatSession) choiceList() string {
	var b strings.Builder
	for i, ch := range s.ctrl.Choices() {
		fmt.Fprintf(&b, "  %s %s\n", s.styles.key.Render(strconv.Itoa(i+1)), ch.Label)
	}
	return b.String()
}

// once prints text unless key was printed on this screen already.
func (s *ChatSession) once(key, text string) {
	if s.shown[key] {
		return
	}
	s.shown[key] = true
	fmt.Fprintln(s.out, strings.TrimRight(text, "\n"))
}

func (s *ChatSession) printHelp() {
	fmt.Fprintln(s.out, s.styles.title.Render("Commands"))
	for _, row := range [][2]string{
		{"/help", "Show this help"},
		{"/menu", "Return to the main menu"},
		{"/end", "End the chat and leave feedback"},
		{"/new", "Start a new session"},
		{"/export [FORMAT]", "Save the transcript (markdown, html, json)"},
		{"/quit", "Exit"},
	} {
		fmt.Fprintf(s.out, "  %-18s %s\n", s.styles.key.Render(row[0]), row[1])
	}
	fmt.Fprintln(s.out, s.styles.dim.Render("Answer option lists with their number."))
}

// =============================================================================
// HANDLER
// =============================================================================

// HandleChat runs an interactive line-mode session against the configured
// backend.
func HandleChat(ctx context.Context, w io.Writer, args Args, cfg *config.Config) error {
	backend, err := NewBackend(cfg)
	if err != nil {
		return err
	}
	exportDir, _ := cfg.ExportPath()

	session, err := NewChatSession(ChatConfig{
		Backend:   backend,
		Out:       w,
		Language:  cfg.UI.Language,
		PlainText: cfg.UI.PlainText || args.PlainText || !ColorsEnabled(),
		ExportDir: exportDir,
		Metrics:   telemetry.Default(),
		Logger:    logging.Component("chat"),
	})
	if err != nil {
		return err
	}

	input := NewChatCLI()
	defer input.Close()

	if err := session.Run(ctx, input.ReadInput); err != nil {
		return err
	}
	fmt.Fprintln(w, DimStyle.Render("Goodbye."))
	return nil
}
