package model

import "time"

// AccessKind distinguishes which kind of record was read on behalf of a patient.
type AccessKind string

const (
	AccessPatient AccessKind = "Patient"
	AccessSample  AccessKind = "Sample"
)

// AuditLog tracks how often a patient's data has been accessed. One record
// exists per patient id that has ever been read; audit records are never
// deleted. The record is keyed by the patient id.
type AuditLog struct {
	PatientID           string    `json:"patientId"`
	PatientAccessCount  int64     `json:"patientAccessCount"`
	SampleAccessCount   int64     `json:"sampleAccessCount"`
	LastAccessTimestamp time.Time `json:"lastAccessTimestamp"`
}

func (a AuditLog) RecordID() string { return a.PatientID }
