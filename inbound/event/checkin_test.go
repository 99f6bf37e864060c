package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"qr-checkin/model"
	"qr-checkin/outbound/sqlgen"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
)

type CheckinEventTestSuite struct {
	suite.Suite

	Querier      *sqlgen.Queries
	PgxMock      pgxmock.PgxPoolIface
	checkinEvent CheckinEvent
}

func (s *CheckinEventTestSuite) SetupTest() {
	pool, err := pgxmock.NewPool()
	if err != nil {
		s.T().Fatalf("failed to create pgxmock pool: %v", err)
	}

	s.PgxMock = pool
	s.Querier = sqlgen.New(pool)

	s.checkinEvent = CheckinEvent{
		Querier: s.Querier,
		Timeout: 10 * time.Second,
		TimeNow: func() time.Time {
			return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
		},
	}

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *CheckinEventTestSuite) TearDownTest() {
	s.PgxMock.Close()
}

func TestCheckinEventTestSuite(t *testing.T) {
	suite.Run(t, new(CheckinEventTestSuite))
}

func (s *CheckinEventTestSuite) TestRecord() {
	scannedAt := time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		input       model.CheckinEventMessage
		rawMsg      []byte
		setupMock   func()
		expectError bool
	}{
		{
			name:        "poison message is dropped",
			rawMsg:      []byte(`{invalid json`),
			setupMock:   func() {},
			expectError: false,
		},
		{
			name: "insert error",
			input: model.CheckinEventMessage{
				Station:      "gate-1",
				TicketNumber: "TKT-20250101-001",
				RawPayload:   "TKT-20250101-001",
				Kind:         "ticket_number",
				Result:       model.ScanResultResolved,
				ScannedAt:    scannedAt.Format(time.RFC3339),
			},
			setupMock: func() {
				s.PgxMock.ExpectExec("INSERT INTO scan_logs").
					WithArgs(
						"gate-1",
						pgtype.Text{String: "TKT-20250101-001", Valid: true},
						"TKT-20250101-001",
						"ticket_number",
						model.ScanResultResolved,
						pgtype.Timestamptz{Time: scannedAt, Valid: true},
					).
					WillReturnError(fmt.Errorf("database error"))
			},
			expectError: true,
		},
		{
			name: "missing timestamp falls back to now",
			input: model.CheckinEventMessage{
				Station:    "gate-1",
				RawPayload: "hello world",
				Kind:       "unknown",
				Result:     model.ScanResultNotFound,
			},
			setupMock: func() {
				s.PgxMock.ExpectExec("INSERT INTO scan_logs").
					WithArgs(
						"gate-1",
						pgtype.Text{},
						"hello world",
						"unknown",
						model.ScanResultNotFound,
						pgtype.Timestamptz{Time: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Valid: true},
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			expectError: false,
		},
		{
			name: "success",
			input: model.CheckinEventMessage{
				Station:      "gate-1",
				TicketNumber: "TKT-20250101-001",
				RawPayload:   "TKT-20250101-001",
				Kind:         "ticket_number",
				Result:       model.ScanResultEntered,
				ScannedAt:    scannedAt.Format(time.RFC3339),
			},
			setupMock: func() {
				s.PgxMock.ExpectExec("INSERT INTO scan_logs").
					WithArgs(
						"gate-1",
						pgtype.Text{String: "TKT-20250101-001", Valid: true},
						"TKT-20250101-001",
						"ticket_number",
						model.ScanResultEntered,
						pgtype.Timestamptz{Time: scannedAt, Valid: true},
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			expectError: false,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			msg := tc.rawMsg
			if msg == nil {
				var err error
				msg, err = json.Marshal(tc.input)
				s.Require().NoError(err)
			}

			tc.setupMock()
			err := s.checkinEvent.RecordHandler(context.Background(), msg)

			if tc.expectError {
				s.Error(err)
			} else {
				s.NoError(err)
			}

			s.NoError(s.PgxMock.ExpectationsWereMet())
		})
	}
}
