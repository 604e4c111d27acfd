package notifier

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CommandHandler answers a chat command. An empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string, args []string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// ParseCommand splits "/lth@bot INFY TCS" into "lth" and its arguments.
func ParseCommand(text string) (string, []string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

type getUpdatesRequest struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// PollOnce fetches pending updates after offset, answers commands from the
// configured chat and returns the next offset.
func (t *TelegramNotifier) PollOnce(ctx context.Context, offset int, timeout time.Duration, handler CommandHandler) (int, error) {
	// Long polling holds the request open for timeout; the shared client
	// would cut it off.
	client := &http.Client{Timeout: timeout + 5*time.Second, Transport: t.Client.Transport}
	var updates []telegramUpdate
	req := getUpdatesRequest{Offset: offset, Timeout: int(timeout.Seconds()), AllowedUpdates: []string{"message"}}
	if err := t.call(ctx, client, "getUpdates", req, &updates); err != nil {
		return offset, err
	}

	for _, update := range updates {
		offset = update.UpdateID + 1
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		if strconv.FormatInt(update.Message.Chat.ID, 10) != t.ChatID {
			continue
		}
		cmd, args := ParseCommand(update.Message.Text)
		if cmd == "" {
			continue
		}
		log.Printf("[INFO] received command: /%s %v", cmd, args)
		if reply := handler(ctx, cmd, args); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				log.Printf("[ERROR] send reply: %v", err)
			}
		}
	}
	return offset, nil
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		next, err := t.PollOnce(ctx, offset, 30*time.Second, handler)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		offset = next
	}
}
