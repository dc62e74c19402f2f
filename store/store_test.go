package store_test

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dartrie/dartrie/serialize"
	"github.com/dartrie/dartrie/store"
)

var _ = Describe("Store", func() {
	var (
		mockPool pgxmock.PgxPoolIface
		s        *store.Store
	)

	BeforeEach(func() {
		var err error
		mockPool, err = pgxmock.NewPool()
		Expect(err).NotTo(HaveOccurred())
		s = store.NewWithQuerier(mockPool, zerolog.New(io.Discard))
	})

	AfterEach(func() {
		mockPool.Close()
	})

	Describe("Put", func() {
		It("upserts the payload", func() {
			mockPool.ExpectExec("INSERT INTO dictionaries").
				WithArgs("animals", byte(0), []byte{1, 2, 3}).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))

			err := s.Put(context.Background(), "animals", serialize.Reduced, []byte{1, 2, 3})
			Expect(err).NotTo(HaveOccurred())
		})

		It("propagates a database error", func() {
			mockPool.ExpectExec("INSERT INTO dictionaries").
				WillReturnError(errors.New("connection reset"))

			err := s.Put(context.Background(), "animals", serialize.Reduced, []byte{1})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("returns the stored payload", func() {
			rows := pgxmock.NewRows([]string{"payload"}).AddRow([]byte{9, 9, 9})
			mockPool.ExpectQuery("SELECT payload FROM dictionaries").
				WithArgs("animals", byte(1)).
				WillReturnRows(rows)

			blob, err := s.Get(context.Background(), "animals", serialize.Minimal)
			Expect(err).NotTo(HaveOccurred())
			Expect(blob).To(Equal([]byte{9, 9, 9}))
		})

		It("wraps ErrNotFound when no row matches", func() {
			mockPool.ExpectQuery("SELECT payload FROM dictionaries").
				WithArgs("missing", byte(0)).
				WillReturnError(pgx.ErrNoRows)

			_, err := s.Get(context.Background(), "missing", serialize.Reduced)
			Expect(errors.Is(err, store.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("enumerates stored dictionaries", func() {
			now := time.Now()
			rows := pgxmock.NewRows([]string{"name", "variant", "built_at"}).
				AddRow("animals", byte(0), now).
				AddRow("animals", byte(1), now)
			mockPool.ExpectQuery("SELECT name, variant, built_at FROM dictionaries").
				WillReturnRows(rows)

			entries, err := s.List(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Name).To(Equal("animals"))
			Expect(entries[0].Variant).To(Equal(serialize.Reduced))
			Expect(entries[1].Variant).To(Equal(serialize.Minimal))
		})

		It("returns an empty slice, not an error, when nothing is stored", func() {
			rows := pgxmock.NewRows([]string{"name", "variant", "built_at"})
			mockPool.ExpectQuery("SELECT name, variant, built_at FROM dictionaries").
				WillReturnRows(rows)

			entries, err := s.List(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})
})
