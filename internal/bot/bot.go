package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/vikas-bot/internal/agent"
	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap"
)

const (
	historySize      = 5
	maxListedProduct = 5
)

// Assistant is the chat pipeline behind the bot
type Assistant interface {
	Process(ctx context.Context, query string, qc models.QueryContext) *models.AgentResponse
	Welcome(ctx context.Context, qc models.QueryContext) *models.AgentResponse
	Dashboard() models.DashboardMetrics
}

type Retrieval interface {
	CompareProducts(ctx context.Context, ids []string) (*models.AgentResponse, error)
	AnswerProductQuestion(ctx context.Context, productID, question string) (*models.AgentResponse, error)
}

type Bot struct {
	api       *tgbotapi.BotAPI
	assistant Assistant
	retrieval Retrieval
	history   *chatHistory
	logger    *zap.Logger
}

func New(token string, assistant Assistant, retrieval Retrieval, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:       api,
		assistant: assistant,
		retrieval: retrieval,
		history:   newChatHistory(historySize),
		logger:    logger,
	}, nil
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if strings.TrimSpace(content) == "" {
		return
	}

	b.history.Add(message.Chat.ID, content)
	qc := queryContext(message)
	qc.History = b.history.Get(message.Chat.ID)

	resp := b.assistant.Process(ctx, content, qc)
	if resp.Escalation != nil {
		b.logger.Info("Conversation escalated",
			zap.String("ticket_id", resp.Escalation.TicketID),
			zap.Int64("chat_id", message.Chat.ID))
	}
	b.sendReply(message.Chat.ID, message.MessageID, resp)
}

func queryContext(message *tgbotapi.Message) models.QueryContext {
	qc := models.QueryContext{SessionID: strconv.FormatInt(message.Chat.ID, 10)}
	if message.From != nil {
		qc.UserID = strconv.FormatInt(message.From.ID, 10)
		qc.UserName = message.From.FirstName
	}
	return qc
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "help":
		b.sendMessage(message.Chat.ID, helpText)
	case "stats":
		b.handleStats(message)
	case "compare":
		b.handleCompare(ctx, message)
	case "product":
		b.handleProduct(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

const helpText = `Available commands:
/start - Start the bot
/help - Show this help message
/stats - Show assistant analytics
/compare <id> <id> ... - Compare two or more products
/product <id> <question> - Ask about a specific product

Or just ask me anything: search products, check store stock, track orders, or get recommendations.`

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	// a fresh start never counts as a returning user
	qc := queryContext(message)
	qc.UserID = ""
	b.sendReply(message.Chat.ID, 0, b.assistant.Welcome(ctx, qc))
}

func (b *Bot) handleStats(message *tgbotapi.Message) {
	b.sendMarkdown(message.Chat.ID, 0, formatStats(b.assistant.Dashboard()))
}

func (b *Bot) handleCompare(ctx context.Context, message *tgbotapi.Message) {
	ids := strings.Fields(message.CommandArguments())
	if len(ids) < 2 {
		b.sendMessage(message.Chat.ID, "Usage: /compare <product id> <product id> ...")
		return
	}

	resp, err := b.retrieval.CompareProducts(ctx, ids)
	if err != nil {
		b.logger.Error("Failed to compare products",
			zap.Error(err),
			zap.Strings("product_ids", ids))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't compare those products right now.")
		return
	}
	b.sendReply(message.Chat.ID, message.MessageID, resp)
}

func (b *Bot) handleProduct(ctx context.Context, message *tgbotapi.Message) {
	id, question, _ := strings.Cut(strings.TrimSpace(message.CommandArguments()), " ")
	question = strings.TrimSpace(question)
	if id == "" || question == "" {
		b.sendMessage(message.Chat.ID, "Usage: /product <product id> <question>")
		return
	}

	resp, err := b.retrieval.AnswerProductQuestion(ctx, id, question)
	if errors.Is(err, storage.ErrNotFound) {
		b.sendMessage(message.Chat.ID, "Product not found.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to answer product question",
			zap.Error(err),
			zap.String("product_id", id))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't answer your question right now.")
		return
	}
	b.sendReply(message.Chat.ID, message.MessageID, resp)
}

// formatReply renders an agent response as MarkdownV2
func formatReply(resp *models.AgentResponse) string {
	var sb strings.Builder
	sb.WriteString(escapeMarkdown(resp.Response))

	if len(resp.Products) > 0 {
		sb.WriteString("\n\n*Products:*")
		for i, p := range resp.Products {
			if i == maxListedProduct {
				fmt.Fprintf(&sb, "\n_%s_", escapeMarkdown(fmt.Sprintf("...and %d more", len(resp.Products)-maxListedProduct)))
				break
			}
			line := fmt.Sprintf("%s - %s (id: %s)", p.Title, agent.FormatPrice(p.Price), p.ID)
			sb.WriteString("\n• " + escapeMarkdown(line))
		}
	}

	if resp.Escalation != nil {
		fmt.Fprintf(&sb, "\n\n*Ticket:* `%s`", escapeMarkdown(resp.Escalation.TicketID))
		if resp.Escalation.Priority == models.PriorityHigh {
			sb.WriteString(" \\(high priority\\)")
		}
	}

	if len(resp.Suggestions) > 0 {
		sb.WriteString("\n\n*Try:*")
		for _, s := range resp.Suggestions {
			sb.WriteString("\n• " + escapeMarkdown(s))
		}
	}
	return sb.String()
}

func formatStats(m models.DashboardMetrics) string {
	var sb strings.Builder
	sb.WriteString("*Assistant analytics*\n")
	sb.WriteString(escapeMarkdown(fmt.Sprintf("Interactions: %d", m.TotalInteractions)) + "\n")
	sb.WriteString(escapeMarkdown(fmt.Sprintf("Containment rate: %.1f%%", m.ContainmentRate*100)) + "\n")
	sb.WriteString(escapeMarkdown(fmt.Sprintf("Average sentiment: %.2f", m.AverageSentiment)) + "\n")

	if len(m.IntentDistribution) > 0 {
		sb.WriteString("\n*Intents:*\n")
		for _, s := range m.IntentDistribution {
			sb.WriteString(escapeMarkdown(fmt.Sprintf("%s: %d (%.1f%%)", s.Intent, s.Count, s.Percentage)) + "\n")
		}
	}
	if len(m.PopularQueries) > 0 {
		sb.WriteString("\n*Popular queries:*\n")
		for _, q := range m.PopularQueries {
			sb.WriteString(escapeMarkdown(fmt.Sprintf("%s (%d)", q.Query, q.Count)) + "\n")
		}
	}
	for _, in := range m.Insights {
		sb.WriteString("\n_" + escapeMarkdown(in.Message) + "_")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// escapeMarkdown escapes the characters reserved by MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendReply(chatID int64, replyToID int, resp *models.AgentResponse) {
	b.sendMarkdown(chatID, replyToID, formatReply(resp))
}

func (b *Bot) sendMarkdown(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyToID

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
