package telegram

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "pothole-scan/internal/application"
	"pothole-scan/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я ищу ямы на дорогах по панорамам улиц.

📍 Отправьте геопозицию, и я осмотрю улицы вокруг неё.

📋 Команды:
/scan — случайные точки в радиусе от геопозиции
/around — осмотреться во все стороны из одной точки
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите режим: /scan или /around
2️⃣ Отправьте геопозицию (скрепка → Геопозиция)
3️⃣ Получите снимки с отмеченными ямами и JSON-отчёт

📋 Команды:
/scan — точки в радиусе
/around — направления из одной точки
/cancel — отменить операцию`

	msgAwaitingRadius   = "📍 Отправьте геопозицию: выберу несколько точек в радиусе %.2f км."
	msgAwaitingHeadings = "📍 Отправьте геопозицию: сниму улицу в %d направлениях."
	msgCancelled        = "❌ Операция отменена. Отправьте /scan для нового поиска."
	msgSendLocation     = "📍 Пожалуйста, отправьте геопозицию."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Сканирую улицы, это может занять время..."
	msgBusy             = "⏳ Предыдущее сканирование ещё идёт."
	msgNoDefects        = "✅ Ямы не обнаружены."
	msgProcessingError  = "⚠️ Не удалось выполнить сканирование. Попробуйте другую точку."
	msgFound            = "🕳 Ямы найдены на %d снимках из %d."

	maxPhotos = 10
)

// ScanDefaults параметры сканирования, которые пользователь не задаёт
type ScanDefaults struct {
	RadiusKm   float64
	NumPoints  int
	Confidence float64
	ReportDir  string
}

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *app.UserService
	pipeline *app.PipelineService
	defaults ScanDefaults
	logger   *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, pipeline *app.PipelineService, defaults ScanDefaults, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger = logger.Named("bot")
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:      api,
		users:    users,
		pipeline: pipeline,
		defaults: defaults,
		logger:   logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", zap.Error(err))
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.Location != nil {
		b.handleLocation(ctx, msg, user)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendLocation)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.users.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "scan":
		if _, err := b.users.BeginScan(ctx, userID, chatID, entity.ModeRadius); err != nil {
			b.logger.Error("begin scan", zap.Error(err))
			return
		}
		b.sendLocationRequest(chatID, fmt.Sprintf(msgAwaitingRadius, b.defaults.RadiusKm))

	case "around":
		if _, err := b.users.BeginScan(ctx, userID, chatID, entity.ModeHeadings); err != nil {
			b.logger.Error("begin scan", zap.Error(err))
			return
		}
		b.sendLocationRequest(chatID, fmt.Sprintf(msgAwaitingHeadings, b.defaults.NumPoints))

	case "cancel":
		b.users.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleLocation запускает сканирование вокруг присланной точки
func (b *Bot) handleLocation(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if _, err := b.users.StartProcessing(ctx, user.ID, user.ChatID); err != nil {
		reply := gateReply(err)
		if reply == msgProcessingError {
			b.logger.Error("start processing", zap.Error(err))
		}
		b.sendMessage(msg.Chat.ID, reply)
		return
	}
	defer b.users.SetState(ctx, user.ID, user.ChatID, entity.StateMainMenu)

	center, err := entity.NewCoordinate(msg.Location.Latitude, msg.Location.Longitude)
	if err != nil {
		b.logger.Warn("bad location", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	b.sendMessage(msg.Chat.ID, msgProcessing)

	req := entity.ScanRequest{
		Center:     center,
		RadiusKm:   b.defaults.RadiusKm,
		Count:      b.defaults.NumPoints,
		Mode:       user.ScanMode,
		Confidence: b.defaults.Confidence,
		ReportPath: filepath.Join(b.defaults.ReportDir, fmt.Sprintf("chat_%d.json", msg.Chat.ID)),
	}

	report, err := b.pipeline.Run(ctx, req)
	if err != nil {
		b.logger.Error("scan failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	if len(report.Records) == 0 {
		b.sendMessage(msg.Chat.ID, msgNoDefects)
		return
	}

	b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgFound, len(report.Records), report.Captured))
	for i, rec := range report.Records {
		if i == maxPhotos {
			break
		}
		b.sendRecord(msg.Chat.ID, rec)
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FilePath(report.ReportPath))
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("send report", zap.Error(err))
	}
}

// gateReply подбирает ответ на геопозицию, которую сейчас нельзя принять
func gateReply(err error) string {
	switch {
	case errors.Is(err, app.ErrScanInProgress):
		return msgBusy
	case errors.Is(err, app.ErrNotAwaitingLocation):
		return msgSendLocation
	default:
		return msgProcessingError
	}
}

// sendRecord отправляет размеченный снимок с подписью
func (b *Bot) sendRecord(chatID int64, rec entity.DetectionRecord) {
	caption := recordCaption(rec)
	if rec.AnnotatedImage == "" {
		b.sendMessage(chatID, caption)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(rec.AnnotatedImage))
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Error("send photo", zap.Error(err))
	}
}

// recordCaption формирует подпись к снимку
func recordCaption(rec entity.DetectionRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📍 %.7f, %.7f (курс %d°)\n", rec.Latitude, rec.Longitude, rec.Heading)
	fmt.Fprintf(&sb, "🛣 %s\n", rec.StreetName)
	for _, d := range rec.Detections {
		fmt.Fprintf(&sb, "• %s %.0f%%\n", d.Class, d.Confidence*100)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// sendLocationRequest просит геопозицию кнопкой
func (b *Bot) sendLocationRequest(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation("📍 Отправить геопозицию")),
	)
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", zap.Error(err))
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", zap.Error(err))
	}
}
