package bus

import "testing"

func TestPublishFansOutToEverySubscriber(t *testing.T) {
	b := New(4)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer sub1.Close()
	defer sub2.Close()

	b.Publish(Message{TargetShip: "SHIP-1", Kind: PayloadCargoChange, CargoChange: &CargoChange{TradeSymbol: "IRON_ORE", Units: 5}})

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case msg := <-sub.Messages():
			if msg.TargetShip != "SHIP-1" {
				t.Fatalf("got TargetShip %q, want SHIP-1", msg.TargetShip)
			}
		default:
			t.Fatal("expected a fanned-out message")
		}
	}
}

func TestPublishDropsOldestWhenSubscriberBufferIsFull(t *testing.T) {
	b := New(2)
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(Message{TargetShip: "A"})
	b.Publish(Message{TargetShip: "B"})
	b.Publish(Message{TargetShip: "C"})

	first := <-sub.Messages()
	second := <-sub.Messages()
	if first.TargetShip != "B" || second.TargetShip != "C" {
		t.Fatalf("expected the oldest message dropped, got %q then %q", first.TargetShip, second.TargetShip)
	}
}

func TestCloseStopsFurtherDelivery(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()
	sub.Close()

	b.Publish(Message{TargetShip: "A"})

	if _, ok := <-sub.Messages(); ok {
		t.Fatal("expected channel closed after Close, got an open delivery")
	}
}

func TestNewClampsNonPositiveCapacity(t *testing.T) {
	b := New(0)
	if b.capacity != DefaultCapacity {
		t.Fatalf("capacity = %d, want DefaultCapacity %d", b.capacity, DefaultCapacity)
	}
}
