package conversation

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"gitlab.com/yelinaung/tengecash-bot/internal/auth"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/repository"
)

// boundAccount returns the account linked to chatID. When there is none it
// tells the user to log in and returns nil.
func (e *Engine) boundAccount(ctx context.Context, out Messenger, chatID int64) *models.Account {
	acc, err := e.stores.Accounts.FindByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			e.states.Clear(chatID)
			e.send(ctx, out, chatID, Reply{Text: msgLoginRequired})
			return nil
		}
		e.storeFailure(ctx, out, chatID, err, "find_account")
		return nil
	}
	return acc
}

func (e *Engine) handleStart(ctx context.Context, out Messenger, msg Message, _ string) {
	acc, err := e.stores.Accounts.FindByChatID(ctx, msg.ChatID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		e.send(ctx, out, msg.ChatID, Reply{Text: msgUnauthenticated})
	case err != nil:
		e.storeFailure(ctx, out, msg.ChatID, err, "start")
	default:
		e.send(ctx, out, msg.ChatID, Reply{Text: msgWelcomeBack(acc.DisplayName())})
	}
}

func (e *Engine) handleHelp(ctx context.Context, out Messenger, msg Message, _ string) {
	e.send(ctx, out, msg.ChatID, Reply{Text: helpText})
}

func (e *Engine) handleInfo(ctx context.Context, out Messenger, msg Message, _ string) {
	e.send(ctx, out, msg.ChatID, Reply{Text: msgInfo})
}

func (e *Engine) handleSite(ctx context.Context, out Messenger, msg Message, _ string) {
	if e.cfg.SiteURL == "" {
		e.send(ctx, out, msg.ChatID, Reply{Text: msgSiteMissing})
		return
	}
	e.send(ctx, out, msg.ChatID, Reply{Text: msgSite(e.cfg.SiteURL)})
}

func (e *Engine) handleCancel(ctx context.Context, out Messenger, msg Message, _ string) {
	if _, idle := e.states.Get(msg.ChatID).(Idle); idle {
		e.send(ctx, out, msg.ChatID, Reply{Text: msgNothingToCancel})
		return
	}
	e.states.Clear(msg.ChatID)
	e.send(ctx, out, msg.ChatID, Reply{Text: msgCancelled})
}

// handleLogin starts the login flow. "/login user" skips the username prompt
// and "/login user password" verifies in one step.
func (e *Engine) handleLogin(ctx context.Context, out Messenger, msg Message, args string) {
	username, password := args, ""
	if i := strings.IndexFunc(args, unicode.IsSpace); i >= 0 {
		username, password = args[:i], strings.TrimSpace(args[i:])
	}

	switch {
	case username == "":
		e.states.Set(msg.ChatID, AwaitingUsername{})
		e.send(ctx, out, msg.ChatID, Reply{Text: msgAskUsername})
	case password == "":
		e.states.Set(msg.ChatID, AwaitingPassword{Username: username})
		e.send(ctx, out, msg.ChatID, Reply{Text: msgAskPassword})
	default:
		e.completeLogin(ctx, out, msg, username, password)
	}
}

func (e *Engine) receiveUsername(ctx context.Context, out Messenger, msg Message) {
	username := strings.TrimSpace(msg.Text)
	if username == "" {
		e.send(ctx, out, msg.ChatID, Reply{Text: msgEmptyUsername})
		return
	}
	e.states.Set(msg.ChatID, AwaitingPassword{Username: username})
	e.send(ctx, out, msg.ChatID, Reply{Text: msgAskPassword})
}

func (e *Engine) receivePassword(ctx context.Context, out Messenger, msg Message, st AwaitingPassword) {
	e.completeLogin(ctx, out, msg, st.Username, strings.TrimSpace(msg.Text))
}

// completeLogin verifies the credentials, binds the chat on success and always
// removes the password-bearing message.
func (e *Engine) completeLogin(ctx context.Context, out Messenger, msg Message, username, password string) {
	defer func() {
		if err := out.Delete(ctx, msg.ChatID, msg.MessageID); err != nil {
			logger.Log.Warn().Err(err).Str("chat_hash", logger.HashChatID(msg.ChatID)).Msg("Failed to delete password message")
		}
	}()
	e.states.Clear(msg.ChatID)

	log := logger.Log.With().
		Str("chat_hash", logger.HashChatID(msg.ChatID)).
		Str("user_hash", logger.HashUsername(username)).
		Logger()

	acc, err := e.stores.Auth.Authenticate(ctx, username, password)
	switch {
	case errors.Is(err, auth.ErrUnknownUser), errors.Is(err, auth.ErrInvalidPassword):
		log.Info().Err(err).Msg("Login rejected")
		e.send(ctx, out, msg.ChatID, Reply{Text: msgLoginFailed})
		return
	case errors.Is(err, auth.ErrInactive):
		log.Info().Msg("Login rejected for inactive account")
		e.send(ctx, out, msg.ChatID, Reply{Text: msgAccountInactive})
		return
	case err != nil:
		e.storeFailure(ctx, out, msg.ChatID, err, "authenticate")
		return
	}

	if err := e.stores.Accounts.Bind(ctx, acc.ID, msg.ChatID); err != nil {
		e.storeFailure(ctx, out, msg.ChatID, err, "bind")
		return
	}

	log.Info().Int64("account_id", acc.ID).Msg("Chat linked to account")
	e.send(ctx, out, msg.ChatID, Reply{Text: msgLoginSucceeded(acc.Username)})
}

func (e *Engine) handleLogout(ctx context.Context, out Messenger, msg Message, _ string) {
	unbound, err := e.stores.Accounts.UnbindChat(ctx, msg.ChatID)
	if err != nil {
		e.storeFailure(ctx, out, msg.ChatID, err, "unbind")
		return
	}
	if !unbound {
		e.send(ctx, out, msg.ChatID, Reply{Text: msgLogoutNotBound})
		return
	}
	logger.Log.Info().Str("chat_hash", logger.HashChatID(msg.ChatID)).Msg("Chat unlinked")
	e.send(ctx, out, msg.ChatID, Reply{Text: msgLogoutDone})
}
