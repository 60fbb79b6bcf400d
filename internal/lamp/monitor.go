// internal/lamp/monitor.go
package lamp

import (
	"time"

	"github.com/tamzrod/laempli/internal/backend"
	"github.com/tamzrod/laempli/internal/status"
)

// Snapshot is the indicator view of the current state.
func (l *Loop) Snapshot() status.Snapshot {
	table := l.session.Table()
	agg := table.Aggregate()
	sound := l.exec.Sound()

	s := status.Snapshot{
		Connection:  l.connectionCode(),
		WorstResult: uint16(agg.Worst),
		ActiveState: uint16(agg.Active),
		SoundSeq:    sound.Seq,
		SoundCode:   sound.Code,
		Channels:    make([]uint16, table.Len()),
	}

	if l.online && l.session.Status() != backend.StatusNone {
		s.SecondsConnected = uint32(l.now().Sub(l.connectedSince) / time.Second)
	}

	for i, ch := range table.Channels() {
		s.Channels[i] = status.ChannelWord(ch.Active, uint8(ch.State), uint8(ch.Result))
	}
	return s
}

func (l *Loop) connectionCode() uint16 {
	if !l.online {
		return status.ConnOffline
	}
	switch l.session.Status() {
	case backend.StatusNone:
		return status.ConnWaiting
	case backend.StatusConnected:
		return status.ConnConnected
	case backend.StatusOkay:
		return status.ConnOkay
	default:
		return status.ConnFailed
	}
}

// writeIndicator pushes the snapshot; the writer only sends what changed.
// Write errors are logged on the first failure and on recovery.
func (l *Loop) writeIndicator() {
	if l.indicator == nil {
		return
	}
	err := l.indicator.WriteStatus(l.Snapshot())
	switch {
	case err != nil && !l.lastWriteErr:
		l.log.Warn("lamp: indicator write failed", "err", err)
	case err == nil && l.lastWriteErr:
		l.log.Info("lamp: indicator write recovered")
	}
	l.lastWriteErr = err != nil
}

// monitor logs a periodic summary of the loop and the session.
func (l *Loop) monitor() {
	st := l.session.Stats()
	agg := l.session.Table().Aggregate()

	var stable time.Duration
	if l.online {
		stable = l.now().Sub(l.connectedSince).Round(time.Second)
	}

	l.connLog.Info("mon: lamp",
		"uptime", l.now().Sub(l.started).Round(time.Second),
		"online", l.online,
		"stable", stable,
		"connects", l.connects,
		"dial_failures", l.dialFailures,
		"noise", l.exec.Noise().String(),
	)
	l.connLog.Info("mon: backend",
		"status", st.Status.String(),
		"rx_bytes", st.BytesReceived,
		"rx_buffered", st.Buffered,
		"rx_peak", st.PeakFill,
		"rx_overflows", st.Overflows,
		"last_heartbeat", sinceOrNA(l.now(), st.LastHeartbeat),
	)
	l.connLog.Info("mon: jobs",
		"worst", agg.Worst.String(),
		"active", agg.Active.String(),
		"table", l.session.Table().Summary(),
	)
}

func sinceOrNA(now, t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return now.Sub(t).Round(time.Millisecond).String()
}
