// Package cli provides the interactive faceguard console.
//
// It drives enrolment, training and login against the local camera and
// database, and forwards admin commands to a running faceguardd.
//
// Commands:
//   - register / train: enrol a user and rebuild the model
//   - login / logout / whoami: run an authentication attempt, manage the session
//   - logs / access / intruders: local audit trail, access log and snapshots
//   - admin ...: admin panel over gRPC (see "admin help")
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
