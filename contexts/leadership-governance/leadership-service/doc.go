// Package leadershipservice implements the election and leadership
// appointment lifecycle inside the leadership-governance context.
//
// The module runs elections from planning through nominations, candidate
// review, voting and tallying, and converts a finalized
// election into an elected appointment that supersedes the current holder
// of the same position, level and entity in one atomic step. Manual
// appointments, terminations and removals share the same one-holder rule.
// State changes are recorded in an outbox and relayed by a worker.
package leadershipservice
