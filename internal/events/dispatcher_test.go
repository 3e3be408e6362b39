package events_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

var _ = Describe("InMemoryDispatcher", func() {
	It("delivers only to subscribers of the event type", func() {
		d := events.NewInMemoryDispatcher()
		var created, changed int
		d.Subscribe(events.EventTicketCreated, func(ctx context.Context, e events.Event) error {
			created++
			return nil
		})
		d.Subscribe(events.EventTicketStateChanged, func(ctx context.Context, e events.Event) error {
			changed++
			return nil
		})

		Expect(d.Publish(context.Background(), events.Event{Type: events.EventTicketCreated})).To(Succeed())
		Expect(created).To(Equal(1))
		Expect(changed).To(Equal(0))
	})

	It("runs every handler and joins their failures", func() {
		d := events.NewInMemoryDispatcher()
		first := errors.New("first")
		second := errors.New("second")
		var calls int
		for _, err := range []error{first, nil, second} {
			err := err
			d.Subscribe(events.EventTicketDeadlinesRecomputed, func(ctx context.Context, e events.Event) error {
				calls++
				return err
			})
		}

		err := d.Publish(context.Background(), events.Event{Type: events.EventTicketDeadlinesRecomputed})
		Expect(calls).To(Equal(3))
		Expect(err).To(MatchError(first))
		Expect(err).To(MatchError(second))
	})

	It("turns a panicking handler into an error and keeps delivering", func() {
		d := events.NewInMemoryDispatcher()
		var delivered bool
		d.Subscribe(events.EventTicketStateChanged, func(ctx context.Context, e events.Event) error {
			panic("boom")
		})
		d.Subscribe(events.EventTicketStateChanged, func(ctx context.Context, e events.Event) error {
			delivered = true
			return nil
		})

		err := d.Publish(context.Background(), events.Event{Type: events.EventTicketStateChanged})
		Expect(err).To(MatchError(events.ErrHandlerPanic))
		Expect(err.Error()).To(ContainSubstring("boom"))
		Expect(delivered).To(BeTrue())
	})
})
