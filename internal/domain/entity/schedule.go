package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound         = errors.New("slot not found in schedule")
	ErrSlotFull             = errors.New("slot is fully booked")
	ErrSlotUnderflow        = errors.New("slot booked count would go negative")
	ErrCapacityBelowBooked  = errors.New("slot capacity cannot be reduced below current bookings")
	ErrBookedSlotRemoved    = errors.New("cannot remove a slot that has bookings")
	ErrInvalidSlotTimes     = errors.New("slot start time must be before end time")
	ErrInvalidSlotCapacity  = errors.New("slot capacity must be at least 1")
	ErrInvalidBookedCount   = errors.New("slot booked count must be between 0 and capacity")
	ErrScheduleHasNoSlots   = errors.New("schedule must have at least one slot")
)

// Slot is one bookable time interval within a schedule. Slots carry a stable
// ID so appointments survive reordering; position in the Slots sequence is
// display order only.
type Slot struct {
	ID          string `json:"id"`
	Start       string `json:"start"` // HH:MM
	End         string `json:"end"`   // HH:MM
	Capacity    int    `json:"capacity"`
	BookedCount int    `json:"booked_count"`
}

// Validate checks the static slot invariants.
func (s *Slot) Validate() error {
	if _, err := time.Parse("15:04", s.Start); err != nil {
		return fmt.Errorf("%w: bad start %q", ErrInvalidSlotTimes, s.Start)
	}
	if _, err := time.Parse("15:04", s.End); err != nil {
		return fmt.Errorf("%w: bad end %q", ErrInvalidSlotTimes, s.End)
	}
	if s.Start >= s.End {
		return ErrInvalidSlotTimes
	}
	if s.Capacity < 1 {
		return ErrInvalidSlotCapacity
	}
	if s.BookedCount < 0 || s.BookedCount > s.Capacity {
		return ErrInvalidBookedCount
	}
	return nil
}

// IsFull reports whether the slot has no remaining capacity.
func (s *Slot) IsFull() bool {
	return s.BookedCount >= s.Capacity
}

// SlotList is the ordered slot sequence stored as a JSONB column.
type SlotList []Slot

// Value implements driver.Valuer for JSONB storage.
func (l SlotList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(SlotList{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB storage.
func (l *SlotList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal slot list value: %v", value)
	}
	return json.Unmarshal(bytes, l)
}

// Schedule is one doctor's availability for one calendar date. The
// (doctor_id, schedule_date) pair is unique.
type Schedule struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedules_doctor_date" json:"doctor_id"`
	ScheduleDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_schedules_doctor_date" json:"schedule_date"`
	Slots        SlotList  `gorm:"type:jsonb;not null" json:"slots"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Schedule) TableName() string {
	return "schedules"
}

// SlotAt returns the slot at the given display index.
func (s *Schedule) SlotAt(index int) (*Slot, error) {
	if index < 0 || index >= len(s.Slots) {
		return nil, ErrSlotNotFound
	}
	return &s.Slots[index], nil
}

// SlotByID returns the slot with the given stable ID and its current index.
func (s *Schedule) SlotByID(slotID string) (*Slot, int, error) {
	for i := range s.Slots {
		if s.Slots[i].ID == slotID {
			return &s.Slots[i], i, nil
		}
	}
	return nil, -1, ErrSlotNotFound
}

// ValidateNewSlots checks a slot sequence for schedule creation. Booked counts
// must be zero and every slot gets a fresh stable ID.
func ValidateNewSlots(slots []Slot) (SlotList, error) {
	if len(slots) == 0 {
		return nil, ErrScheduleHasNoSlots
	}
	out := make(SlotList, len(slots))
	for i, slot := range slots {
		slot.ID = uuid.NewString()
		slot.BookedCount = 0
		if err := slot.Validate(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		out[i] = slot
	}
	return out, nil
}

// ApplySlotUpdate validates a replacement slot sequence against the live
// booked counts and returns the merged result. Slots referencing an existing
// ID keep that ID and its booked count; the update is rejected wholesale when
// a kept slot's new capacity falls below its booked count, or when a slot with
// bookings is dropped from the sequence. Slots without an ID are new.
func (s *Schedule) ApplySlotUpdate(newSlots []Slot) (SlotList, error) {
	if len(newSlots) == 0 {
		return nil, ErrScheduleHasNoSlots
	}

	existing := make(map[string]*Slot, len(s.Slots))
	for i := range s.Slots {
		existing[s.Slots[i].ID] = &s.Slots[i]
	}

	kept := make(map[string]bool, len(newSlots))
	merged := make(SlotList, len(newSlots))
	for i, slot := range newSlots {
		if current, ok := existing[slot.ID]; ok {
			if slot.Capacity < current.BookedCount {
				return nil, fmt.Errorf("slot %d: %w", i, ErrCapacityBelowBooked)
			}
			slot.BookedCount = current.BookedCount
			kept[slot.ID] = true
		} else {
			slot.ID = uuid.NewString()
			slot.BookedCount = 0
		}
		if err := slot.Validate(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		merged[i] = slot
	}

	for id, slot := range existing {
		if !kept[id] && slot.BookedCount > 0 {
			return nil, ErrBookedSlotRemoved
		}
	}

	return merged, nil
}

// DateString formats the schedule date as YYYY-MM-DD.
func (s *Schedule) DateString() string {
	return s.ScheduleDate.Format("2006-01-02")
}
