package mail

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OTPEmail builds the subject and HTML body for a password reset passcode.
func OTPEmail(code string, validity time.Duration) (subject, body string) {
	subject = "Your Password Reset OTP"
	body = fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 20px;">
  <div style="background: #ffffff; max-width: 500px; margin: 0 auto; border-radius: 10px; padding: 25px; border: 1px solid #e5e7eb;">
    <h2 style="text-align:center; color:#111;">Password Reset Request</h2>
    <p style="text-align:center; color:#666;">Your One-Time Password (OTP) is below</p>
    <div style="margin: 30px auto; text-align: center; padding: 15px 20px; border-radius: 8px; background: #111827; color: #ffffff; font-size: 32px; letter-spacing: 4px; font-weight: bold; width: fit-content;">%s</div>
    <p style="color:#444; text-align:center;">Enter this code in the app to reset your password.<br>This OTP is valid only for <strong>%d minutes</strong>.</p>
    <p style="font-size:13px; color:#888; text-align:center;">If you did not request this, you can safely ignore this email.</p>
  </div>
</div>`, code, int(validity.Minutes()))
	return subject, body
}

// TriggeredAlert describes a fired alert for notification rendering.
type TriggeredAlert struct {
	CoinID       string
	Symbol       string
	TargetPrice  decimal.Decimal
	CurrentPrice decimal.Decimal
	TriggeredAt  time.Time
}

// AlertEmail builds the subject and HTML body for a triggered price alert.
func AlertEmail(a TriggeredAlert) (subject, body string) {
	symbol := strings.ToUpper(a.Symbol)
	subject = fmt.Sprintf("%s Price Alert Triggered!", symbol)
	body = fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; background-color: #f9fafb; padding: 24px;">
  <div style="background: #ffffff; max-width: 520px; margin: 0 auto; border-radius: 10px; padding: 30px 25px;">
    <h2 style="text-align:center; color:#111;">Price Alert Triggered!</h2>
    <table style="width:100%%; border-collapse:collapse; margin:20px 0;">
      <tr><td style="padding:8px 0; color:#555;">Coin:</td><td style="padding:8px 0; font-weight:bold;">%s</td></tr>
      <tr><td style="padding:8px 0; color:#555;">Symbol:</td><td style="padding:8px 0; font-weight:bold;">%s</td></tr>
      <tr><td style="padding:8px 0; color:#555;">Target Price:</td><td style="padding:8px 0; font-weight:bold; color:#059669;">$%s</td></tr>
      <tr><td style="padding:8px 0; color:#555;">Current Price:</td><td style="padding:8px 0; font-weight:bold; color:#dc2626;">$%s</td></tr>
      <tr><td style="padding:8px 0; color:#555;">Triggered At:</td><td style="padding:8px 0; font-weight:bold;">%s</td></tr>
    </table>
    <div style="background: #111827; color: #fff; text-align:center; padding: 12px 16px; border-radius: 8px; margin: 25px 0;">%s has reached your target price of $%s!</div>
    <p style="font-size:13px; color:#6b7280; text-align:center;">You can mute or delete this alert anytime from your dashboard.</p>
  </div>
</div>`,
		a.CoinID, symbol,
		a.TargetPrice.String(), a.CurrentPrice.String(),
		a.TriggeredAt.UTC().Format(time.RFC1123),
		symbol, a.TargetPrice.String())
	return subject, body
}
