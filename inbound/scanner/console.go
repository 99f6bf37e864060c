package scanner

import (
	"errors"
	"fmt"
	"io"
	"qr-checkin/common/constant"
	"qr-checkin/common/errs"
	"qr-checkin/model"

	"golang.org/x/text/message"
)

// ConsoleListener renders scan results on the operator terminal.
type ConsoleListener struct {
	Out                  io.Writer
	YenCurrencyFormatter *message.Printer
}

func (l *ConsoleListener) OnStatus(kind, msg string) {
	fmt.Fprintf(l.Out, "[%s] %s\n", kind, msg)
}

func (l *ConsoleListener) OnTicket(rec model.TicketRecord, source string) {
	amount := l.YenCurrencyFormatter.Sprintf("¥%d", rec.Amount)

	fmt.Fprintf(l.Out, "\nチケット番号: %s\n", rec.TicketNumber)
	fmt.Fprintf(l.Out, "氏名: %s\n", rec.Name)
	fmt.Fprintf(l.Out, "イベント: %s (%s)\n", rec.Event, rec.TicketType)
	fmt.Fprintf(l.Out, "金額: %s\n", amount)
	fmt.Fprintf(l.Out, "支払い: %s / 入場: %s\n", rec.PaymentStatus, rec.EntryStatus)
	fmt.Fprintf(l.Out, "取得元: %s\n", source)

	if constant.IsPaid(rec.PaymentStatus) && !constant.HasEntered(rec.EntryStatus) {
		fmt.Fprintln(l.Out, "→ 入場を確認できます（Enterで確定）")
	} else if constant.HasEntered(rec.EntryStatus) {
		fmt.Fprintln(l.Out, "→ このチケットは入場済みです")
	} else {
		fmt.Fprintln(l.Out, "→ 未払いのため入場できません")
	}
}

func (l *ConsoleListener) OnResolveError(id model.ScanIdentifier, err error) {
	var notFound *errs.NotFoundError
	var ambiguous *errs.AmbiguousMatchError

	switch {
	case errors.As(err, &notFound):
		fmt.Fprintf(l.Out, "チケットが見つかりません: %s（再スキャンしてください）\n", notFound.Identifier)
	case errors.As(err, &ambiguous):
		fmt.Fprintf(l.Out, "番号 %s に該当するチケットが%d件あります。より長い番号でやり直してください\n", ambiguous.Suffix, ambiguous.Count)
	default:
		fmt.Fprintln(l.Out, "通信エラーが発生しました。もう一度お試しください")
	}
}

// TerminalBeeper rings the terminal bell. Whether anything is audible depends
// on the terminal.
type TerminalBeeper struct {
	Out io.Writer
}

func (b *TerminalBeeper) Beep() {
	fmt.Fprint(b.Out, "\a")
}
