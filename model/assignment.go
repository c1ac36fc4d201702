// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package model

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Values for the technician assignment status attribute
const (
	AssignmentStatusAssigned  = "assigned"
	AssignmentStatusActive    = "active"
	AssignmentStatusSuspended = "suspended"
	AssignmentStatusRevoked   = "revoked"
	AssignmentStatusCompleted = "completed"
)

// assignment statuses are lower-case identifiers; the stores rely on them
// not containing separators when aggregating the statuses of a machine
var assignmentStatusFormat = regexp.MustCompile(`^[a-z][a-z_]*$`)

// SupervisingAssignmentStatuses are the assignment statuses that keep a
// machine under technician supervision.
var SupervisingAssignmentStatuses = []string{
	AssignmentStatusAssigned,
	AssignmentStatusActive,
}

// TechnicianAssignment links a machine to a technician's work order
type TechnicianAssignment struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	RvmMachineID uuid.UUID `json:"rvm_machine_id" bson:"rvm_machine_id"`
	TechnicianID string    `json:"technician_id" bson:"technician_id"`
	Status       string    `json:"status" bson:"status"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (a TechnicianAssignment) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RvmMachineID, validation.By(func(value interface{}) error {
			if value.(uuid.UUID) == uuid.Nil {
				return validation.ErrRequired
			}
			return nil
		})),
		validation.Field(&a.TechnicianID, validation.Required),
		validation.Field(&a.Status,
			validation.Required,
			validation.Match(assignmentStatusFormat),
		),
	)
}

// IsSupervisingStatus reports whether an assignment in the given status
// keeps its machine under technician supervision.
func IsSupervisingStatus(status string) bool {
	for _, s := range SupervisingAssignmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// HasSupervisingAssignment reports whether at least one of the assignment
// statuses is supervising.
func HasSupervisingAssignment(statuses []string) bool {
	for _, status := range statuses {
		if IsSupervisingStatus(status) {
			return true
		}
	}
	return false
}

// IsSupervisionLapsed reports whether the machine has an assignment history
// but none of its assignments is supervising any longer.
func IsSupervisionLapsed(statuses []string) bool {
	return len(statuses) > 0 && !HasSupervisingAssignment(statuses)
}
