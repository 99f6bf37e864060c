package constant

// Status vocabulary of the ticket management sheet. The sheet stores these
// values verbatim, so the station must compare against the exact strings.
const (
	PaymentStatusPaid   = "支払い完了"
	PaymentStatusUnpaid = "未払い"

	EntryStatusNotEntered = "未入場"
	EntryStatusEntered    = "入場済み"
)

// Scanner status kinds emitted to the presentation layer.
const (
	ScanStatusReady    = "ready"
	ScanStatusScanning = "scanning"
	ScanStatusSuccess  = "success"
	ScanStatusError    = "error"
)

const (
	MsgReady    = "シャッターボタンを押してスキャン"
	MsgScanning = "スキャン中..."
	MsgDetected = "QRコードを検出しました！"
	MsgError    = "エラーが発生しました"
)

func IsPaid(paymentStatus string) bool {
	return paymentStatus == PaymentStatusPaid
}

func HasEntered(entryStatus string) bool {
	return entryStatus == EntryStatusEntered
}
