// Package qrtoken encodes and verifies patient-reference tokens carried in QR codes.
//
// Token Format:
//
//	token := urlEscape( base64Std( json(Reference) ) )
//
//   - Minimal shape:  {"patientId":"...","type":"patient_profile"}
//   - Extended shape: {"patientId":"...","type":"patient_profile",
//     "timestamp":<ms epoch>,"signature":"<16 chars>","version":"1.0"}
//
// The token is appended to a scan URL of the form /patient/<id>?code=<token>.
// Callers resolving that URL must compare the path segment with the decoded
// patient id; Verify alone does not see the path.
//
// Integrity:
//
// The "signature" field is an integrity hint, not a MAC. It is the first 16
// characters of the base64 form of "<id>:<timestamp>:patient_profile", so it
// covers only the first 12 bytes of that string and anyone who reads this
// package can forge it. It detects accidental corruption and naive edits only.
//
// Verification:
//
// Verify is total over arbitrary input. Every failure is reported through
// Result.Valid; Result.Reason exists for logs and metrics and is not a
// policy signal. Expired tokens stay Valid with Expired set.
package qrtoken
