// Package onramp automates a multi-environment client onboarding workflow
// (Dev → Staging → Prod) behind a typed, evidence-gated state machine.
//
// The engine is built from pluggable service layers:
//
//   - machine       – pure transition/evidence decision core
//   - approval      – human-in-the-loop approval gates with expiry
//   - orchestration – transactional state updates, audit and status
//   - provider      – ticket, secret, screenshot and email collaborators
//   - command       – regex front end dispatching onto the orchestrator
//
// Onramp is designed to be embedded in host applications.  End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv := onramp.New()
//	result, _ := srv.Command(ctx, &model.CommandRequest{Text: "onboard acme", UserID: "ab-1234"})
//	status, _ := srv.Orchestrator().Status(ctx, result.ThreadID)
//
// For more details see the README and individual sub-packages.
package onramp
