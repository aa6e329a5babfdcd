// Package integration contains the Integration bounded context.
// This context bridges an issue tracker and a sales CRM and mirrors records between them.
//
// Key concepts:
//   - IssueTracker: Port interface for the issue tracker (Jira)
//   - CRM: Port interface for the sales CRM (Pipedrive)
//   - DedupSet: Destination-side identifying strings used to suppress duplicate creation
//   - DealIntent / IssueIntent: Ephemeral planned creations computed during a reconciliation pass
//   - IssueToDealReport / DealToIssueReport: Outcome of one reconciliation pass
//
// The gateway holds no authoritative state. Every pass recomputes its decisions from fresh
// snapshots of both systems.
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
