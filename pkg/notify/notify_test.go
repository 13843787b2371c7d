package notify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/notify"
)

var _ = Describe("Bus", func() {
	var bus *notify.Bus

	BeforeEach(func() {
		bus = notify.NewBus(logger.Nop())
	})

	It("delivers a toast to every subscriber", func() {
		var a, b []notify.Toast
		bus.Subscribe(func(t notify.Toast) { a = append(a, t) })
		bus.Subscribe(func(t notify.Toast) { b = append(b, t) })

		toast := notify.Toast{Type: notify.TypeError, Title: "Stream Error", Message: "boom"}
		bus.Notify(toast)

		Expect(a).To(Equal([]notify.Toast{toast}))
		Expect(b).To(Equal([]notify.Toast{toast}))
	})

	It("stops delivering after unsubscribe", func() {
		var got int
		unsubscribe := bus.Subscribe(func(notify.Toast) { got++ })

		bus.Notify(notify.Toast{Message: "one"})
		unsubscribe()
		unsubscribe()
		bus.Notify(notify.Toast{Message: "two"})

		Expect(got).To(Equal(1))
		Expect(bus.Subscribers()).To(BeZero())
	})

	It("feeds a store subscribed to it", func() {
		store := notify.NewStore()
		bus.Subscribe(store.Notify)

		bus.Notify(notify.Toast{Type: notify.TypeInfo, Message: "hello"})

		Expect(store.List()).To(HaveLen(1))
		Expect(store.List()[0].ID).NotTo(BeEmpty())
	})
})

var _ = Describe("Store", func() {
	var store *notify.Store

	BeforeEach(func() {
		store = notify.NewStore()
	})

	It("assigns distinct ids", func() {
		a := store.Add(notify.Toast{Message: "a"})
		b := store.Add(notify.Toast{Message: "b", ID: "caller-set"})

		Expect(a).NotTo(Equal(b))
		Expect(b).NotTo(Equal("caller-set"))

		found, ok := store.Find(b)
		Expect(ok).To(BeTrue())
		Expect(found.Message).To(Equal("b"))
	})

	It("removes a toast by id and ignores unknown ids", func() {
		a := store.Add(notify.Toast{Message: "a"})
		store.Add(notify.Toast{Message: "b"})

		store.Remove("missing")
		store.Remove(a)

		_, ok := store.Find(a)
		Expect(ok).To(BeFalse())
		Expect(store.List()).To(HaveLen(1))
	})

	It("keeps persistent toasts when drained", func() {
		store.Add(notify.Toast{Message: "transient"})
		store.Add(notify.Toast{Message: "sticky", Persistent: true})

		Expect(store.Drain()).To(HaveLen(2))
		Expect(store.List()).To(ConsistOf(HaveField("Message", "sticky")))
	})

	It("clears everything", func() {
		store.Add(notify.Toast{Message: "sticky", Persistent: true})
		store.ClearAll()
		Expect(store.List()).To(BeEmpty())
	})
})
