package model

import "time"

// Sample is a time-stamped heart rate measurement for a patient. Samples are
// immutable once stored; the id is generated by the server on creation.
type Sample struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Timestamp time.Time `json:"timestamp"`
	HeartRate float64   `json:"heartRate"`
}

func (s Sample) RecordID() string { return s.ID }
