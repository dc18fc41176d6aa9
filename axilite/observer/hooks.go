package observer

import (
	"strconv"
	"strings"

	"github.com/sarchlab/axisim/datarecording"
	"github.com/sarchlab/axisim/sim"
	log "github.com/sirupsen/logrus"
)

// Tables written by the recording hook.
const (
	TransferTableName  = "axi_transfer"
	ViolationTableName = "axi_violation"
)

// TransferEntry is one row of the transfer table.
type TransferEntry struct {
	Cycle    uint64
	Location string
	Channel  string
	Payload  string
}

// ViolationEntry is one row of the violation table.
type ViolationEntry struct {
	Cycle    uint64
	Location string
	Channel  string
	Reason   string
}

// LogHook logs transfers at debug level and violations at warning level.
type LogHook struct {
	logger log.FieldLogger
}

// NewLogHook creates a LogHook.
func NewLogHook(logger log.FieldLogger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs the transfer or violation.
func (h *LogHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosTransfer:
		t := ctx.Item.(Transfer)
		h.logger.WithFields(log.Fields{
			"cycle":   t.Cycle,
			"where":   domainName(ctx),
			"channel": t.Channel,
			"payload": formatPayload(t.Payload),
		}).Debug("transfer")
	case HookPosViolation:
		v := ctx.Item.(Violation)
		h.logger.WithFields(log.Fields{
			"cycle":   v.Cycle,
			"where":   domainName(ctx),
			"channel": v.Channel,
		}).Warn(v.Reason)
	}
}

// RecordingHook stores transfers and violations through a DataRecorder.
type RecordingHook struct {
	recorder datarecording.DataRecorder
}

// NewRecordingHook creates the transfer and violation tables and returns a
// hook that fills them.
func NewRecordingHook(recorder datarecording.DataRecorder) *RecordingHook {
	recorder.CreateTable(TransferTableName, TransferEntry{})
	recorder.CreateTable(ViolationTableName, ViolationEntry{})

	return &RecordingHook{recorder: recorder}
}

// Func records the transfer or violation.
func (h *RecordingHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosTransfer:
		t := ctx.Item.(Transfer)
		h.recorder.InsertData(TransferTableName, TransferEntry{
			Cycle:    t.Cycle,
			Location: domainName(ctx),
			Channel:  t.Channel,
			Payload:  formatPayload(t.Payload),
		})
	case HookPosViolation:
		v := ctx.Item.(Violation)
		h.recorder.InsertData(ViolationTableName, ViolationEntry{
			Cycle:    v.Cycle,
			Location: domainName(ctx),
			Channel:  v.Channel,
			Reason:   v.Reason,
		})
	}
}

func domainName(ctx sim.HookCtx) string {
	if named, ok := ctx.Domain.(sim.Named); ok {
		return named.Name()
	}

	return ""
}

func formatPayload(payload []uint64) string {
	values := make([]string, len(payload))
	for i, v := range payload {
		values[i] = "0x" + strconv.FormatUint(v, 16)
	}

	return strings.Join(values, ",")
}
