package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ariefcatur/go-qris-orderbot/internal/orders"
)

// pemisah ribuan pakai titik: Rp 50.000
var idr = message.NewPrinter(language.Indonesian)

func rupiah(v int64) string {
	return idr.Sprintf("Rp %d", v)
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// code: isi untuk `...`; backtick tidak bisa di-escape di dalam entity.
func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

func stockLabel(p orders.Product) string {
	switch {
	case p.Unlimited():
		return "Unlimited"
	case p.SoldOut():
		return "Habis"
	default:
		return fmt.Sprintf("%d", p.Stock)
	}
}

func productButtonText(p orders.Product) string {
	return fmt.Sprintf("%s - %s (Stok: %s)", p.Name, rupiah(p.Price), stockLabel(p))
}

func productDetailText(p orders.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s*\n\n", esc(p.Name))
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", esc(p.Description))
	}
	fmt.Fprintf(&b, "💰 Harga: %s\n", rupiah(p.Price))
	fmt.Fprintf(&b, "📊 Stok: %s\n\n", stockLabel(p))
	b.WriteString("Klik tombol di bawah untuk membeli:")
	return b.String()
}

func orderCreatedText(co orders.Checkout) string {
	return fmt.Sprintf("✅ *Pesanan Dibuat!*\n\n"+
		"📦 Produk: %s\n"+
		"💰 Total: %s\n"+
		"🆔 Order ID: %s\n\n"+
		"⏰ Bayar dalam %d menit\n\n"+
		"Scan QRIS di bawah atau klik tombol untuk membuka QRIS:",
		esc(co.Product.Name), rupiah(co.Order.Amount), code(co.Order.ID), int(orders.OrderTTL.Minutes()))
}

// DeliveryText adalah pesan fulfillment setelah pembayaran terkonfirmasi.
func DeliveryText(p orders.Product, orderID string) string {
	return fmt.Sprintf("✅ *Pembayaran Berhasil!*\n\n"+
		"Terima kasih telah berbelanja!\n\n"+
		"📦 Produk: %s\n"+
		"🎁 Data Produk:\n%s\n\n"+
		"Order ID: %s",
		esc(p.Name), code(p.Data), code(orderID))
}

func orderLine(o orders.Order) string {
	status := "⏳ Menunggu pembayaran"
	if o.Status == orders.StatusPaid {
		status = "✅ Lunas"
	}
	return fmt.Sprintf("%s\n%s · %s · %s", code(o.ID), rupiah(o.Amount), o.CreatedAt.Format("02/01/2006 15:04"), status)
}

const welcomeText = `🤖 *Selamat Datang di Auto Order Bot!*

Bot ini menyediakan pembelian produk digital otomatis dengan pembayaran QRIS.

✅ Pembayaran via QRIS (semua e-wallet & bank)
✅ Verifikasi otomatis & instant delivery
✅ Aktif 24/7

Silakan pilih menu di bawah:`

func helpText(adminContact string) string {
	t := "ℹ️ *Bantuan*\n\n" +
		"Cara order:\n" +
		"1. Pilih produk\n" +
		"2. Klik \"Beli Sekarang\"\n" +
		"3. Scan QRIS & bayar\n" +
		"4. Produk otomatis dikirim setelah pembayaran\n\n" +
		fmt.Sprintf("⏰ Pembayaran valid %d menit", int(orders.OrderTTL.Minutes()))
	if adminContact != "" {
		t += "\n\n💬 Kontak admin: " + esc(adminContact)
	}
	return t
}

const addProductHelp = `➕ *Tambah Produk*

Format:
/addproduct Nama|Deskripsi|Harga|Stok|Data

Contoh:
/addproduct Netflix Premium|Akun Netflix 1 bulan|50000|10|email:pass

Stok -1 untuk unlimited`
