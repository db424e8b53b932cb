package zwdriver

import (
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
)

// readPollInterval bounds how long readLoop blocks in Transport.Wait before
// re-checking exit, so Close's signal is never stuck behind an idle line.
const readPollInterval = 200 * time.Millisecond

// readLoop is the C1/C2 reader task: it owns the only call ever made into
// Transport.Read/Wait, feeding every byte to the frame decoder and handing
// decoded events to the driver task over inbox. Split out from run so a
// device stuck mid-read never blocks engine ticks or command processing,
// per §5's reader/driver task split.
func (d *Driver) readLoop() {
	buf := make([]byte, 256)
	for {
		select {
		case <-d.exit:
			return
		default:
		}

		if !d.transport.Wait(readPollInterval) {
			continue
		}

		n, err := d.transport.Read(buf)
		if err != nil {
			d.log.Errorf("zwdriver: transport read: %v", err)
			d.Bus.Post(zwnotify.Notification{
				Type: zwnotify.DriverFailed,
				Err:  &ClassifiedError{Kind: KindTransportError, Err: err},
			})
			return
		}

		for i := 0; i < n; i++ {
			ev := d.decoder.Feed(buf[i])
			if ev.Control == 0 && ev.Frame == nil && !ev.NAK {
				continue
			}
			select {
			case d.inbox <- ev:
			case <-d.exit:
				return
			}
		}
	}
}
