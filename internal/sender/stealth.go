package sender

import (
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// sleepRandom sleeps for a random duration between min and max milliseconds.
func sleepRandom(minMs, maxMs int) {
	if maxMs < minMs {
		maxMs = minMs
	}
	d := time.Duration(minMs+rand.Intn(maxMs-minMs+1)) * time.Millisecond
	time.Sleep(d)
}

// typeHumanLike enters text one rune at a time with jittered inter-key delays
// so the portal sees keyboard cadence instead of a paste.
func typeHumanLike(el *rod.Element, text string) error {
	if err := el.Focus(); err != nil {
		return err
	}
	for _, r := range text {
		if err := el.Input(string(r)); err != nil {
			return err
		}
		sleepRandom(40, 160)
	}
	return nil
}

// clickHumanLike hovers before clicking with a short pause in between.
func clickHumanLike(el *rod.Element) error {
	if err := el.Hover(); err != nil {
		return err
	}
	sleepRandom(150, 450)
	return el.Click(proto.InputMouseButtonLeft, 1)
}
