package bot

import "sync"

// chatHistory keeps the last few messages of every chat
type chatHistory struct {
	mu    sync.Mutex
	size  int
	chats map[int64][]string
}

func newChatHistory(size int) *chatHistory {
	return &chatHistory{size: size, chats: make(map[int64][]string)}
}

func (h *chatHistory) Add(chatID int64, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.chats[chatID], text)
	if len(msgs) > h.size {
		msgs = append([]string(nil), msgs[len(msgs)-h.size:]...)
	}
	h.chats[chatID] = msgs
}

// Get returns a copy of the chat's messages, oldest first
func (h *chatHistory) Get(chatID int64) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.chats[chatID]
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}
