// Package telegram adalah front-end chat: katalog, checkout QRIS, pesanan
// user, perintah admin, dan pengiriman produk setelah bayar.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-qris-orderbot/internal/orders"
)

const (
	cbShowProducts = "show_products"
	cbMyOrders     = "my_orders"
	cbHelp         = "help"
	cbBackToMenu   = "back_to_menu"
	cbProduct      = "product_"
	cbBuy          = "buy_"

	recentOrdersLimit = 10
)

// API: subset *tgbotapi.BotAPI yang dipakai bot.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Shop: orders.Service.
type Shop interface {
	Checkout(ctx context.Context, req orders.Requester, productID int64) (orders.Checkout, error)
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	RecentOrders(ctx context.Context, userID int64, limit int) ([]orders.Order, error)
}

// Catalog: orders.Catalog.
type Catalog interface {
	ActiveProducts(ctx context.Context) ([]orders.Product, error)
	Product(ctx context.Context, id int64) (orders.Product, error)
	AddProduct(ctx context.Context, np orders.NewProduct) (orders.Product, error)
	Deactivate(ctx context.Context, id int64) error
}

type Bot struct {
	API          API
	Shop         Shop
	Catalog      Catalog
	IsAdmin      func(userID int64) bool
	AdminContact string
	Log          *zap.Logger
}

// Run memproses update satu per satu sampai ctx selesai atau channel ditutup.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log().Error("panic handling update", zap.Int("update_id", u.UpdateID), zap.Any("panic", r))
		}
	}()
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.IsCommand():
		b.handleCommand(ctx, u.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		b.reply(m.Chat.ID, welcomeText, mainMenu())
	case "help":
		b.reply(m.Chat.ID, helpText(b.AdminContact), backMenu())
	case "addproduct":
		b.adminAddProduct(ctx, m)
	case "deactivate":
		b.adminDeactivate(ctx, m)
	case "resend":
		b.adminResend(ctx, m)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.API.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log().Warn("answer callback failed", zap.Error(err))
	}
	if q.Message == nil {
		return
	}
	chatID, msgID := q.Message.Chat.ID, q.Message.MessageID

	switch data := q.Data; {
	case data == cbShowProducts:
		b.showProducts(ctx, chatID, msgID)
	case data == cbMyOrders:
		b.myOrders(ctx, q.From, chatID, msgID)
	case data == cbHelp:
		b.edit(chatID, msgID, helpText(b.AdminContact), backMenu())
	case data == cbBackToMenu:
		b.edit(chatID, msgID, "Pilih menu:", mainMenu())
	case strings.HasPrefix(data, cbProduct):
		b.showProduct(ctx, chatID, msgID, strings.TrimPrefix(data, cbProduct))
	case strings.HasPrefix(data, cbBuy):
		b.purchase(ctx, q.From, chatID, msgID, strings.TrimPrefix(data, cbBuy))
	default:
		b.log().Debug("unknown callback", zap.String("data", data))
	}
}

func (b *Bot) showProducts(ctx context.Context, chatID int64, msgID int) {
	ps, err := b.Catalog.ActiveProducts(ctx)
	if err != nil {
		b.log().Error("list products failed", zap.Error(err))
		b.edit(chatID, msgID, "⚠️ Terjadi kesalahan. Silakan coba lagi.", backMenu())
		return
	}
	if len(ps) == 0 {
		b.edit(chatID, msgID, "Maaf, belum ada produk tersedia saat ini.", backMenu())
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(ps)+1)
	for _, p := range ps {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(productButtonText(p), cbProduct+strconv.FormatInt(p.ID, 10))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Kembali", cbBackToMenu)))
	b.edit(chatID, msgID, "📦 *Pilih Produk:*", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showProduct(ctx context.Context, chatID int64, msgID int, rawID string) {
	p, ok := b.lookupProduct(ctx, chatID, msgID, rawID)
	if !ok {
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛒 Beli Sekarang", cbBuy+strconv.FormatInt(p.ID, 10))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Kembali", cbShowProducts)),
	)
	b.edit(chatID, msgID, productDetailText(p), kb)
}

func (b *Bot) lookupProduct(ctx context.Context, chatID int64, msgID int, rawID string) (orders.Product, bool) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		b.edit(chatID, msgID, "Produk tidak ditemukan.", productsMenu())
		return orders.Product{}, false
	}
	p, err := b.Catalog.Product(ctx, id)
	if err != nil || !p.Active {
		if err != nil && !errors.Is(err, orders.ErrNotFound) {
			b.log().Error("get product failed", zap.Int64("product_id", id), zap.Error(err))
		}
		b.edit(chatID, msgID, "Produk tidak ditemukan.", productsMenu())
		return orders.Product{}, false
	}
	return p, true
}

func (b *Bot) purchase(ctx context.Context, from *tgbotapi.User, chatID int64, msgID int, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || from == nil {
		b.edit(chatID, msgID, "Produk tidak ditemukan.", productsMenu())
		return
	}
	co, err := b.Shop.Checkout(ctx, requester(from), id)
	if err != nil {
		b.edit(chatID, msgID, checkoutErrorText(err), productsMenu())
		if !orders.IsUserError(err) {
			b.log().Error("checkout failed", zap.Int64("user_id", from.ID), zap.Int64("product_id", id), zap.Error(err))
		}
		return
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	if co.PaymentURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("📱 Buka QRIS", co.PaymentURL)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Kembali", cbShowProducts)))
	b.edit(chatID, msgID, orderCreatedText(co), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func checkoutErrorText(err error) string {
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrProductInactive):
		return "Produk tidak ditemukan."
	case errors.Is(err, orders.ErrOutOfStock):
		return "Maaf, produk habis."
	case errors.Is(err, orders.ErrPaymentCreation):
		return "⚠️ Gagal membuat pembayaran. Silakan coba lagi."
	default:
		return "⚠️ Terjadi kesalahan. Silakan coba lagi."
	}
}

func (b *Bot) myOrders(ctx context.Context, from *tgbotapi.User, chatID int64, msgID int) {
	if from == nil {
		return
	}
	list, err := b.Shop.RecentOrders(ctx, from.ID, recentOrdersLimit)
	if err != nil {
		b.log().Error("list orders failed", zap.Int64("user_id", from.ID), zap.Error(err))
		b.edit(chatID, msgID, "⚠️ Terjadi kesalahan. Silakan coba lagi.", backMenu())
		return
	}
	if len(list) == 0 {
		b.edit(chatID, msgID, "Belum ada pesanan.", backMenu())
		return
	}
	var sb strings.Builder
	sb.WriteString("📋 *Pesanan Saya*\n")
	for _, o := range list {
		sb.WriteString("\n")
		sb.WriteString(orderLine(o))
		sb.WriteString("\n")
	}
	b.edit(chatID, msgID, sb.String(), backMenu())
}

func (b *Bot) adminAddProduct(ctx context.Context, m *tgbotapi.Message) {
	if !b.authorized(m) {
		return
	}
	args := strings.TrimSpace(m.CommandArguments())
	if args == "" {
		b.reply(m.Chat.ID, addProductHelp)
		return
	}
	np, err := ParseAddProduct(args)
	if err != nil {
		b.replyPlain(m.Chat.ID, "❌ Error: "+err.Error())
		return
	}
	p, err := b.Catalog.AddProduct(ctx, np)
	if err != nil {
		b.log().Error("add product failed", zap.Error(err))
		b.replyPlain(m.Chat.ID, "❌ Error: "+err.Error())
		return
	}
	b.replyPlain(m.Chat.ID, fmt.Sprintf("✅ Produk berhasil ditambahkan! (ID: %d)", p.ID))
}

func (b *Bot) adminDeactivate(ctx context.Context, m *tgbotapi.Message) {
	if !b.authorized(m) {
		return
	}
	id, err := parseID(m.CommandArguments())
	if err != nil {
		b.replyPlain(m.Chat.ID, "Format: /deactivate <id produk>")
		return
	}
	if err := b.Catalog.Deactivate(ctx, id); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			b.replyPlain(m.Chat.ID, "Produk tidak ditemukan.")
			return
		}
		b.log().Error("deactivate product failed", zap.Int64("product_id", id), zap.Error(err))
		b.replyPlain(m.Chat.ID, "❌ Error: "+err.Error())
		return
	}
	b.replyPlain(m.Chat.ID, fmt.Sprintf("✅ Produk %d dinonaktifkan.", id))
}

// adminResend mengirim ulang produk untuk order yang sudah paid, dipakai
// kalau pengiriman setelah konfirmasi gagal.
func (b *Bot) adminResend(ctx context.Context, m *tgbotapi.Message) {
	if !b.authorized(m) {
		return
	}
	orderID := strings.TrimSpace(m.CommandArguments())
	if orderID == "" {
		b.replyPlain(m.Chat.ID, "Format: /resend <order id>")
		return
	}
	o, err := b.Shop.GetOrder(ctx, orderID)
	if err != nil {
		b.replyPlain(m.Chat.ID, "Order tidak ditemukan.")
		return
	}
	if o.Status != orders.StatusPaid {
		b.replyPlain(m.Chat.ID, "Order belum dibayar.")
		return
	}
	p, err := b.Catalog.Product(ctx, o.ProductID)
	if err == nil {
		err = b.DeliverProduct(ctx, o.UserID, o.ID, p)
	}
	if err != nil {
		b.log().Error("resend failed", zap.String("order_id", o.ID), zap.Error(err))
		b.replyPlain(m.Chat.ID, "❌ Error: "+err.Error())
		return
	}
	b.replyPlain(m.Chat.ID, "✅ Produk dikirim ulang.")
}

func (b *Bot) authorized(m *tgbotapi.Message) bool {
	if m.From != nil && b.IsAdmin != nil && b.IsAdmin(m.From.ID) {
		return true
	}
	b.replyPlain(m.Chat.ID, "⛔ Unauthorized")
	return false
}

// Deliver mengirim pesan Markdown langsung ke chat user.
func (b *Bot) Deliver(_ context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.API.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %d: %w", userID, err)
	}
	return nil
}

// DeliverProduct mengirim data produk ke pembeli.
func (b *Bot) DeliverProduct(ctx context.Context, userID int64, orderID string, p orders.Product) error {
	return b.Deliver(ctx, userID, DeliveryText(p, orderID))
}

func (b *Bot) reply(chatID int64, text string, kb ...tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(kb) > 0 {
		msg.ReplyMarkup = kb[0]
	}
	b.send(msg)
}

func (b *Bot) replyPlain(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) edit(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	e := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, kb)
	e.ParseMode = tgbotapi.ModeMarkdown
	b.send(e)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.API.Send(c); err != nil {
		b.log().Warn("telegram send failed", zap.Error(err))
	}
}

func (b *Bot) log() *zap.Logger {
	if b.Log == nil {
		return zap.NewNop()
	}
	return b.Log
}

func requester(u *tgbotapi.User) orders.Requester {
	name := u.UserName
	if name == "" {
		name = u.FirstName
	}
	return orders.Requester{UserID: u.ID, Name: name}
}

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛍️ Lihat Produk", cbShowProducts)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Pesanan Saya", cbMyOrders)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("ℹ️ Bantuan", cbHelp)),
	)
}

func backMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Kembali", cbBackToMenu)))
}

func productsMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Kembali", cbShowProducts)))
}
