// Package storage provides the key-value collaborator behind the patient
// registry.
//
// Layers:
//
//   - KV: minimal key-value contract with Option-style lookups
//   - BadgerKV: persistent engine on Badger v3 with background value-log GC
//   - SealedKV: at-rest encryption wrapper using adaptive AEAD ciphers
//   - PatientStore: patient repository encoding records as JSON under
//     "patients/<id>"
//
// The in-memory engine lives in the memory subpackage.
package storage
