package conversation

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
)

// Callback payload prefixes.
const (
	CallbackEdit          = "edit_"
	CallbackDelete        = "delete_"
	CallbackConfirmDelete = "confirm_delete_"
	CallbackCancelDelete  = "cancel_delete"
	CallbackCategory      = "cat_"
)

type commandHandler func(e *Engine, ctx context.Context, out Messenger, msg Message, args string)

var commands = map[string]commandHandler{
	"start":     (*Engine).handleStart,
	"login":     (*Engine).handleLogin,
	"logout":    (*Engine).handleLogout,
	"help":      (*Engine).handleHelp,
	"info":      (*Engine).handleInfo,
	"catlist":   (*Engine).handleCatList,
	"catadd":    (*Engine).handleCatAdd,
	"catedit":   (*Engine).handleCatEdit,
	"catdelete": (*Engine).handleCatDelete,
	"list":      (*Engine).handleList,
	"total":     (*Engine).handleTotal,
	"site":      (*Engine).handleSite,
	"cancel":    (*Engine).handleCancel,
}

// Commands returns the names of all known commands, sorted.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CallbackPrefixes returns the payload prefixes the engine understands.
func CallbackPrefixes() []string {
	return []string{CallbackEdit, CallbackDelete, CallbackConfirmDelete, CallbackCancelDelete, CallbackCategory}
}

// ParseCommand splits "/name@bot args" into its lowercased name and trimmed args.
// ok is false when text is not a command.
func ParseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '/' {
		return "", "", false
	}

	head, rest := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, rest = head[:i], head[i:]
	}
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

// IsCommand reports whether text invokes the named command.
func IsCommand(text, command string) bool {
	name, _, ok := ParseCommand(text)
	return ok && name == command
}

// HandleMessage routes an inbound text message.
func (e *Engine) HandleMessage(ctx context.Context, out Messenger, msg Message) {
	state := e.states.Get(msg.ChatID)

	if name, args, ok := ParseCommand(msg.Text); ok {
		handler, known := commands[name]
		switch {
		case known:
			logger.Log.Debug().Str("chat_hash", logger.HashChatID(msg.ChatID)).Str("command", name).Msg("Command")
			if name != "cancel" {
				e.states.Clear(msg.ChatID)
			}
			handler(e, ctx, out, msg, args)
			return
		case isPassword(state):
			// A password may start with a slash.
		default:
			e.send(ctx, out, msg.ChatID, Reply{Text: msgUnknownCommand})
			return
		}
	}

	switch st := state.(type) {
	case AwaitingUsername:
		e.receiveUsername(ctx, out, msg)
	case AwaitingPassword:
		e.receivePassword(ctx, out, msg, st)
	case AwaitingNewCategoryName:
		e.receiveNewCategoryName(ctx, out, msg)
	case AwaitingRenameTarget:
		e.receiveRename(ctx, out, msg, st)
	default:
		e.handleExpenseText(ctx, out, msg)
	}
}

// HandleCallback routes an inline keyboard press by payload prefix.
func (e *Engine) HandleCallback(ctx context.Context, out Messenger, cb Callback) {
	data := cb.Data

	if data == CallbackCancelDelete {
		e.handleCancelDelete(ctx, out, cb)
		return
	}

	for _, route := range []struct {
		prefix  string
		handler func(*Engine, context.Context, Messenger, Callback, int64)
	}{
		{CallbackConfirmDelete, (*Engine).handleConfirmDelete},
		{CallbackDelete, (*Engine).handleDeletePick},
		{CallbackEdit, (*Engine).handleEditPick},
		{CallbackCategory, (*Engine).handleCategoryPick},
	} {
		raw, found := strings.CutPrefix(data, route.prefix)
		if !found {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			logger.Log.Warn().Str("prefix", route.prefix).Msg("Callback with malformed id")
			e.answer(ctx, out, cb.ID, msgBadCallback)
			return
		}
		route.handler(e, ctx, out, cb, id)
		return
	}

	logger.Log.Warn().Str("chat_hash", logger.HashChatID(cb.ChatID)).Msg("Unknown callback payload")
	e.answer(ctx, out, cb.ID, msgBadCallback)
}

func isPassword(state State) bool {
	_, ok := state.(AwaitingPassword)
	return ok
}
