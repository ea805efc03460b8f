package gateway

// CoalescedSend delivers snap to a subscriber channel without ever blocking
// the committer: if the subscriber has not drained the previous push, that
// push is replaced. Every push carries the full current value, so dropping a
// superseded snapshot loses nothing and never reorders.
//
// Shared by the gateway implementations; subscriber channels must be
// buffered (capacity 1 is enough).
func CoalescedSend(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
