// Package workflow drives the content pipeline: one control loop per stage
// queue pulls the next eligible job, invokes the stage handler, and commits
// the outcome. Success chains the project into the next stage's queue in the
// same transaction; failure parks the job in its queue for manual retry.
//
// Loops wake on kicks from the operational surface (enqueue, start, retry)
// and fall back to a bounded idle poll. Queue run states persist, so a
// running queue resumes on its own after a daemon restart.
package workflow
