package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/pkg/storage"
	"github.com/papercomputeco/botconsole/pkg/storage/inmemory"
	"github.com/papercomputeco/botconsole/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		return inmemory.NewDriver()
	})

	It("keeps its own copy of a saved turn", func() {
		driver := inmemory.NewDriver()
		turn := storagetest.NewTurn("t1", "agent-a", 0)
		Expect(driver.SaveTurn(context.Background(), turn)).To(Succeed())

		turn.Answer = "mutated"

		got, err := driver.GetTurn(context.Background(), "t1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Answer).To(Equal("answer t1"))
	})
})
