package db_models

type ArtifactGuardState string

const (
	GuardStateInFlight  ArtifactGuardState = "in_flight"
	GuardStateCompleted ArtifactGuardState = "completed"
	GuardStateFailed    ArtifactGuardState = "failed"
)

// ArtifactGuard is the durable side of the ticket-artifact dedup gate. A row
// is claimed (inserted) before the QR/email work starts, so a process restart
// or a competing caller sees the attempt even when the in-memory registry is
// gone. GuardKey is "<eventId>:<transactionId>".
type ArtifactGuard struct {
	BaseModel
	GuardKey   string             `gorm:"uniqueIndex;size:64"`
	SessionKey string             `gorm:"index;size:255"`
	State      ArtifactGuardState `gorm:"index;size:16"`
	QRData     string             `gorm:"type:text"`
	EmailSent  bool
	LastError  string
}
