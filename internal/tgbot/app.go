package tgbot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"regform/internal/form"
	"regform/internal/models"
	"regform/internal/registration"
)

// Sender is the part of the Bot API the dialog uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type App struct {
	bot    *tgbotapi.BotAPI
	api    Sender
	form   *form.Form
	logger *log.Logger

	mu sync.Mutex
	// per chat dialog state; a chat is one form session
	state map[int64]chatState
}

type chatState struct {
	Step int
	Form form.State

	// Fix is set after a rejection: the next answer resubmits right away.
	Fix bool
}

// Dialog steps, in prompt order.
const (
	stepNone = iota
	stepName
	stepEmail
	stepPhone
	stepAction
	stepTeam
	stepGitHub
	stepLinkedIn
	stepRetry
	stepDone
)

const (
	cbAction   = "a:"
	cbNewEntry = "new"
)

func New(token string, f *form.Form, logger *log.Logger) (*App, error) {
	b, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	app := NewWithSender(b, f, logger)
	app.bot = b
	return app, nil
}

// NewWithSender builds an App that talks through s instead of a live bot.
func NewWithSender(s Sender, f *form.Form, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	return &App{
		api:    s,
		form:   f,
		logger: logger.WithPrefix("tgbot"),
		state:  map[int64]chatState{},
	}
}

// Run polls for updates until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.bot == nil {
		return fmt.Errorf("tgbot: no bot connection")
	}
	a.logger.Info("authorized", "account", a.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			a.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		if err := a.handleMessage(ctx, upd.Message.Chat.ID, upd.Message.Text); err != nil {
			a.logger.Error("handle msg", "err", err)
		}
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
			a.logger.Error("handle cb", "err", err)
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.api.Send(msg)
	return err
}

func (a *App) getState(chatID int64) chatState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state[chatID]
}

func (a *App) setState(chatID int64, st chatState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state[chatID] = st
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, chatID int64, text string) error {
	txt := strings.TrimSpace(text)

	if strings.HasPrefix(txt, "/start") {
		return a.start(chatID)
	}

	st := a.getState(chatID)
	switch st.Step {
	case stepNone:
		return a.SendText(chatID, "Send /start to register.")
	case stepDone:
		return a.showRegistered(chatID, st.Form.Success)
	case stepAction:
		return a.askAction(chatID)
	case stepRetry:
		if strings.HasPrefix(txt, "/submit") {
			return a.submit(ctx, chatID, st)
		}
		return a.SendText(chatID, "Send /submit to try again or /start to begin over.")
	}

	optional := st.Step == stepGitHub || st.Step == stepLinkedIn
	if optional && strings.HasPrefix(txt, "/skip") {
		txt = ""
	}
	if txt == "" && !optional {
		return a.SendText(chatID, "This field is required. "+prompt(st.Step))
	}

	fields := st.Form.Fields
	switch st.Step {
	case stepName:
		fields.Name = txt
	case stepEmail:
		fields.Email = txt
	case stepPhone:
		fields.Phone = txt
	case stepTeam:
		fields.TeamName = txt
	case stepGitHub:
		fields.GitHub = txt
	case stepLinkedIn:
		fields.LinkedIn = txt
	}
	st.Form, _ = a.form.Render(ctx, st.Form, form.Edit{Fields: fields})

	if st.Step == stepLinkedIn || st.Fix {
		return a.submit(ctx, chatID, st)
	}
	return a.advance(chatID, st, st.Step+1)
}

func (a *App) start(chatID int64) error {
	st := chatState{Step: stepName, Form: form.NewState()}
	a.setState(chatID, st)
	_, view := a.form.Render(context.Background(), st.Form, nil)
	if err := a.SendText(chatID, view.Title+"\n"+view.Intro); err != nil {
		return err
	}
	return a.SendText(chatID, prompt(stepName))
}

func (a *App) advance(chatID int64, st chatState, step int) error {
	st.Step = step
	a.setState(chatID, st)
	if step == stepAction {
		return a.askAction(chatID)
	}
	return a.SendText(chatID, prompt(step))
}

func (a *App) submit(ctx context.Context, chatID int64, st chatState) error {
	next, view := a.form.Render(ctx, st.Form, form.Submit{Fields: st.Form.Fields})
	st.Form = next

	if next.Registered {
		st.Step = stepDone
		a.setState(chatID, st)
		return a.showRegistered(chatID, view.Success)
	}

	if err := a.SendText(chatID, "Error: "+view.Error); err != nil {
		return err
	}
	st.Fix = true
	return a.advance(chatID, st, stepFor(next.ErrorKind))
}

// stepFor returns the step whose answer has to change after a rejection.
func stepFor(kind registration.Kind) int {
	switch kind {
	case registration.KindMissingField:
		return stepName
	case registration.KindDuplicateEmail:
		return stepEmail
	case registration.KindDuplicatePhone:
		return stepPhone
	case registration.KindInvalidAction:
		return stepAction
	case registration.KindTeamNameTooShort, registration.KindReservedWord,
		registration.KindTeamNameCollision, registration.KindTeamNotFound, registration.KindTeamFull:
		return stepTeam
	default:
		return stepRetry
	}
}

func prompt(step int) string {
	switch step {
	case stepName:
		return "Enter your Name:"
	case stepEmail:
		return "Enter your Email:"
	case stepPhone:
		return "Enter your Phone:"
	case stepTeam:
		return "Enter the Team Name (case sensitive):"
	case stepGitHub:
		return "GitHub profile (optional, /skip to leave empty):"
	case stepLinkedIn:
		return "LinkedIn profile (optional, /skip to leave empty):"
	case stepRetry:
		return "Saving failed. Send /submit to try again."
	default:
		return "Send /start to register."
	}
}

// ---------- Screens ----------

func (a *App) askAction(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Would you like to create or join a team?")
	row := []tgbotapi.InlineKeyboardButton{}
	for _, act := range models.Actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(act), cbAction+string(act)))
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	_, err := a.api.Send(msg)
	return err
}

func (a *App) showRegistered(chatID int64, success string) error {
	msg := tgbotapi.NewMessage(chatID, "✅ "+success)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Enter New Data", cbNewEntry),
		),
	)
	_, err := a.api.Send(msg)
	return err
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	chatID := q.Message.Chat.ID
	data := q.Data

	// ack
	cb := tgbotapi.NewCallback(q.ID, "")
	_, _ = a.api.Request(cb)

	st := a.getState(chatID)

	if data == cbNewEntry {
		if st.Step != stepDone {
			return nil
		}
		st.Form, _ = a.form.Render(ctx, st.Form, form.NewEntry{})
		return a.advance(chatID, chatState{Form: st.Form}, stepName)
	}

	if strings.HasPrefix(data, cbAction) {
		if st.Step != stepAction {
			return nil
		}
		fields := st.Form.Fields
		fields.Action = models.Action(strings.TrimPrefix(data, cbAction))
		st.Form, _ = a.form.Render(ctx, st.Form, form.Edit{Fields: fields})
		if err := a.SendText(chatID, "Selected: "+string(fields.Action)); err != nil {
			return err
		}
		if st.Fix {
			return a.submit(ctx, chatID, st)
		}
		return a.advance(chatID, st, stepTeam)
	}
	return nil
}
