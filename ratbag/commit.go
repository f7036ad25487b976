package ratbag

import (
	"time"

	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/ratbaglog"
)

// readyPollInterval and readyPollAttempts bound the ready-handshake
// backoff at 10ms steps up to ~100ms total: eleven consecutive busy
// reads become a timeout.
const (
	readyPollInterval = 10 * time.Millisecond
	readyPollAttempts = 11
)

// busyRetryAttempts and busyRetryDelay bound the internal retry of a
// transient protocol busy reply; persistent busy becomes timeout.
const (
	busyRetryAttempts = 3
	busyRetryDelay    = 10 * time.Millisecond
)

// retryBusy invokes op, retrying while it fails with the transient
// protocol busy code. Any other outcome is returned as-is; busy on the
// last attempt is reported as ratbagerr.KindTimeout.
func retryBusy(op func() error) error {
	var err error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		err = op()
		if !ratbagerr.IsBusy(err) {
			return err
		}
		time.Sleep(busyRetryDelay)
	}
	return ratbagerr.Wrap(ratbagerr.KindTimeout, err, "device stayed busy")
}

// waitReady polls d's driver for readiness if it implements ReadyWaiter.
// A driver without the interface is assumed to need no handshake.
func waitReady(d *Device) error {
	rw, ok := d.driver.(ReadyWaiter)
	if !ok {
		return nil
	}
	return rw.WaitReady(d)
}

// PollReady is the reusable ready-handshake loop: it calls read until it
// reports ready, sleeping readyPollInterval between attempts, and gives
// up with ratbagerr.Timeout after readyPollAttempts. Drivers implementing
// ReadyWaiter call this from their own status-read function; a driver
// that needs a different handshake policy simply doesn't call it.
func PollReady(read func() (bool, error)) error {
	for attempt := 0; attempt < readyPollAttempts; attempt++ {
		ready, err := read()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		time.Sleep(readyPollInterval)
	}
	return ratbagerr.New(ratbagerr.KindTimeout, "ready handshake timed out")
}

// Commit flushes all pending changes to hardware. If nothing
// is dirty it returns immediately. Profiles are committed in index order;
// a write failure stops the walk, restores the profile that was active
// before Commit began, and leaves the failed profile's dirty flags set
// while already-committed profiles keep theirs cleared. On full success
// the device is left on whatever
// profile the caller most recently asked to activate, or on the profile
// that was active before Commit began if the caller never touched
// activation.
func (d *Device) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.Dirty() {
		return nil
	}

	if d.state == StateNotReady {
		return d.recoverNotReady()
	}

	initial, err := d.driver.ActiveProfile(d)
	if err != nil {
		return err
	}
	onDevice := initial

	var commitErr error
	for _, p := range d.Profiles {
		if !p.Dirty() {
			continue
		}

		if d.HasCapability(CapRequiresActiveForWrite) && onDevice != p.Index {
			if commitErr = retryBusy(func() error { return d.driver.SetActiveProfile(d, p.Index) }); commitErr != nil {
				break
			}
			if commitErr = waitReady(d); commitErr != nil {
				break
			}
			onDevice = p.Index
		}

		if commitErr = retryBusy(func() error { return d.driver.Commit(d, p) }); commitErr != nil {
			break
		}

		if flasher, ok := d.driver.(Flasher); ok {
			if commitErr = retryBusy(func() error { return flasher.SaveToFlash(d) }); commitErr != nil {
				break
			}
			if commitErr = waitReady(d); commitErr != nil {
				break
			}
		}

		p.ClearDirty()
	}

	if commitErr != nil {
		_ = d.driver.SetActiveProfile(d, initial)
		ratbaglog.Error(ratbaglog.ComponentCommit, "commit failed", "error", commitErr)
		return commitErr
	}

	restoreTo := initial
	if d.pendingActiveIndex != nil {
		restoreTo = *d.pendingActiveIndex
	}
	if onDevice != restoreTo {
		if err := retryBusy(func() error { return d.driver.SetActiveProfile(d, restoreTo) }); err != nil {
			return err
		}
		if err := waitReady(d); err != nil {
			return err
		}
	}

	d.pendingActiveIndex = nil
	return nil
}

// recoverNotReady re-probes before attempting any writes; on success
// the commit itself is not attempted, the caller must re-issue it
// against the fresh model it can now re-read.
func (d *Device) recoverNotReady() error {
	rp, ok := d.driver.(Reprober)
	if !ok {
		return ratbagerr.New(ratbagerr.KindDevice, "device not ready and driver cannot re-probe")
	}
	if err := rp.Reprobe(d); err != nil {
		return err
	}
	d.state = StateReady
	return ratbagerr.New(ratbagerr.KindDevice, "device was re-probed; re-issue commit")
}
