// Package storagetest holds the behavior every storage.Driver must show,
// written as Ginkgo specs that driver packages include in their suites.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/pkg/storage"
)

// base is truncated to microseconds, the precision the SQL drivers keep.
var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// NewTurn builds a turn finishing minute minutes after a fixed base time.
func NewTurn(id, agent string, minute int) *storage.Turn {
	started := base.Add(time.Duration(minute) * time.Minute)
	return &storage.Turn{
		ID:             id,
		AgentToken:     agent,
		ConversationID: 7,
		Question:       "question " + id,
		Answer:         "answer " + id,
		Outcome:        "completed",
		StartedAt:      started,
		FinishedAt:     started.Add(2 * time.Second),
	}
}

// DescribeDriver registers the shared driver specs. newDriver is called
// before each spec and the driver is closed after it.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
			driver = nil
		}
	})

	Describe("SaveTurn", func() {
		It("stores a turn that can be read back", func() {
			turn := NewTurn("t1", "agent-a", 0)
			turn.Error = "late failure"
			Expect(driver.SaveTurn(ctx, turn)).To(Succeed())

			got, err := driver.GetTurn(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AgentToken).To(Equal("agent-a"))
			Expect(got.ConversationID).To(Equal(int64(7)))
			Expect(got.Question).To(Equal("question t1"))
			Expect(got.Answer).To(Equal("answer t1"))
			Expect(got.Outcome).To(Equal("completed"))
			Expect(got.Error).To(Equal("late failure"))
			Expect(got.StartedAt).To(BeTemporally("==", turn.StartedAt))
			Expect(got.FinishedAt).To(BeTemporally("==", turn.FinishedAt))
		})

		It("ignores a turn whose id already exists", func() {
			Expect(driver.SaveTurn(ctx, NewTurn("t1", "agent-a", 0))).To(Succeed())

			dup := NewTurn("t1", "agent-a", 0)
			dup.Answer = "changed"
			Expect(driver.SaveTurn(ctx, dup)).To(Succeed())

			got, err := driver.GetTurn(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Answer).To(Equal("answer t1"))
		})

		It("rejects nil and incomplete turns", func() {
			Expect(driver.SaveTurn(ctx, nil)).To(MatchError(storage.ErrNilTurn))
			Expect(driver.SaveTurn(ctx, &storage.Turn{ID: "x"})).To(HaveOccurred())
		})
	})

	Describe("GetTurn", func() {
		It("returns NotFoundError for an unknown id", func() {
			_, err := driver.GetTurn(ctx, "missing")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal("missing"))
		})
	})

	Describe("ListTurns", func() {
		BeforeEach(func() {
			for i := range 5 {
				Expect(driver.SaveTurn(ctx, NewTurn(fmt.Sprintf("a%d", i), "agent-a", i))).To(Succeed())
			}
			Expect(driver.SaveTurn(ctx, NewTurn("b0", "agent-b", 10))).To(Succeed())
		})

		It("lists an agent's turns newest first", func() {
			turns, err := driver.ListTurns(ctx, "agent-a", 0)
			Expect(err).NotTo(HaveOccurred())

			ids := make([]string, 0, len(turns))
			for _, t := range turns {
				ids = append(ids, t.ID)
			}
			Expect(ids).To(Equal([]string{"a4", "a3", "a2", "a1", "a0"}))
		})

		It("honors the limit", func() {
			turns, err := driver.ListTurns(ctx, "agent-a", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(2))
			Expect(turns[0].ID).To(Equal("a4"))
		})

		It("lists every agent when no agent is given", func() {
			turns, err := driver.ListTurns(ctx, "", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(6))
			Expect(turns[0].ID).To(Equal("b0"))
		})

		It("returns nothing for an unknown agent", func() {
			turns, err := driver.ListTurns(ctx, "agent-z", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(BeEmpty())
		})
	})
}
