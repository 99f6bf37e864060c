package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"qr-checkin/common/constant"
	"qr-checkin/common/errs"
	jetsteamMock "qr-checkin/common/jetstream/mocks"
	"qr-checkin/model"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type stubEntryService struct {
	err   error
	calls int
}

func (s *stubEntryService) UpdateEntryStatus(ctx context.Context, number, status string) error {
	s.calls++
	return s.err
}

type UpdaterTestSuite struct {
	suite.Suite

	ctrl      *gomock.Controller
	publisher *jetsteamMock.MockPublisher

	Store     *redis.Client
	CacheMock redismock.ClientMock
	Cache     *Cache
}

func (s *UpdaterTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.publisher = jetsteamMock.NewMockPublisher(s.ctrl)

	rdb, mock := redismock.NewClientMock()
	s.Store = rdb
	s.CacheMock = mock
	s.Cache = NewCache(rdb)

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *UpdaterTestSuite) TearDownTest() {
	if err := s.Store.Close(); err != nil {
		s.T().Fatalf("failed to close redis mock: %v", err)
	}
	s.ctrl.Finish()
}

func TestUpdaterTestSuite(t *testing.T) {
	suite.Run(t, new(UpdaterTestSuite))
}

func (s *UpdaterTestSuite) hydrate(records []model.TicketRecord) {
	data, err := json.Marshal(records)
	s.Require().NoError(err)

	s.CacheMock.ExpectGet(constant.TicketCacheKey).SetVal(string(data))
	s.Cache.Load(context.Background())
}

func (s *UpdaterTestSuite) expectPersist(records []model.TicketRecord) {
	data, err := json.Marshal(records)
	s.Require().NoError(err)

	s.CacheMock.ExpectSet(constant.TicketCacheKey, string(data), 0).SetVal("OK")
}

func (s *UpdaterTestSuite) TestMarkEntered() {
	records := []model.TicketRecord{
		{TicketNumber: "TKT-20250101-001", PaymentStatus: constant.PaymentStatusPaid, EntryStatus: constant.EntryStatusNotEntered},
	}
	s.hydrate(records)

	updated := records
	updated[0].EntryStatus = constant.EntryStatusEntered
	s.expectPersist(updated)

	s.publisher.EXPECT().Publish(
		gomock.Any(),
		constant.SubjectTicketEntered,
		gomock.Any(),
	).Return(nil, nil)

	remote := &stubEntryService{}
	updater := &Updater{
		Cache:     s.Cache,
		Remote:    remote,
		Publisher: s.publisher,
		Station:   "gate-1",
		TimeNow:   func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) },
	}

	err := updater.MarkEntered(context.Background(), "TKT-20250101-001")

	s.NoError(err)
	s.Equal(1, remote.calls)

	rec, _ := s.Cache.LookupExact("TKT-20250101-001")
	s.Equal(constant.EntryStatusEntered, rec.EntryStatus)

	s.NoError(s.CacheMock.ExpectationsWereMet())
}

func (s *UpdaterTestSuite) TestMarkEnteredIsIdempotent() {
	records := []model.TicketRecord{
		{TicketNumber: "TKT-20250101-001", PaymentStatus: constant.PaymentStatusPaid, EntryStatus: constant.EntryStatusNotEntered},
	}
	s.hydrate(records)

	updated := records
	updated[0].EntryStatus = constant.EntryStatusEntered
	s.expectPersist(updated)
	s.expectPersist(updated)

	s.publisher.EXPECT().Publish(
		gomock.Any(),
		constant.SubjectTicketEntered,
		gomock.Any(),
	).Return(nil, nil).Times(2)

	updater := &Updater{
		Cache:     s.Cache,
		Remote:    &stubEntryService{},
		Publisher: s.publisher,
		Station:   "gate-1",
	}

	s.NoError(updater.MarkEntered(context.Background(), "TKT-20250101-001"))
	s.NoError(updater.MarkEntered(context.Background(), "TKT-20250101-001"))

	rec, _ := s.Cache.LookupExact("TKT-20250101-001")
	s.Equal(constant.EntryStatusEntered, rec.EntryStatus, "status converges, it does not toggle")

	s.NoError(s.CacheMock.ExpectationsWereMet())
}

func (s *UpdaterTestSuite) TestMarkEnteredRemoteFailureStillUpdatesCache() {
	records := []model.TicketRecord{
		{TicketNumber: "TKT-20250101-001", PaymentStatus: constant.PaymentStatusPaid, EntryStatus: constant.EntryStatusNotEntered},
	}
	s.hydrate(records)

	updated := records
	updated[0].EntryStatus = constant.EntryStatusEntered
	s.expectPersist(updated)

	remote := &stubEntryService{err: fmt.Errorf("dispatch failed")}
	updater := &Updater{
		Cache:     s.Cache,
		Remote:    remote,
		Publisher: s.publisher,
		Station:   "gate-1",
	}

	err := updater.MarkEntered(context.Background(), "TKT-20250101-001")

	var updateFailed *errs.UpdateFailedError
	s.ErrorAs(err, &updateFailed)
	s.Equal("TKT-20250101-001", updateFailed.TicketNumber)

	rec, _ := s.Cache.LookupExact("TKT-20250101-001")
	s.Equal(constant.EntryStatusEntered, rec.EntryStatus, "the local view reflects the entry even on a failed dispatch")

	s.NoError(s.CacheMock.ExpectationsWereMet())
}

func (s *UpdaterTestSuite) TestMarkEnteredPublishFailureIsNotFatal() {
	records := []model.TicketRecord{
		{TicketNumber: "TKT-20250101-001", PaymentStatus: constant.PaymentStatusPaid, EntryStatus: constant.EntryStatusNotEntered},
	}
	s.hydrate(records)

	updated := records
	updated[0].EntryStatus = constant.EntryStatusEntered
	s.expectPersist(updated)

	s.publisher.EXPECT().Publish(
		gomock.Any(),
		constant.SubjectTicketEntered,
		gomock.Any(),
	).Return(nil, fmt.Errorf("publish error"))

	updater := &Updater{
		Cache:     s.Cache,
		Remote:    &stubEntryService{},
		Publisher: s.publisher,
		Station:   "gate-1",
	}

	err := updater.MarkEntered(context.Background(), "TKT-20250101-001")

	s.NoError(err, "the audit event is best-effort")
	s.NoError(s.CacheMock.ExpectationsWereMet())
}
