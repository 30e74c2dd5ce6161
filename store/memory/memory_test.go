package memory_test

import (
	"testing"

	"github.com/warp/talent-tracker/recruiting"
	"github.com/warp/talent-tracker/store/memory"
	"github.com/warp/talent-tracker/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) recruiting.Store { return memory.New() })
}
