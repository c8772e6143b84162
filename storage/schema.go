package storage

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// SchemaVersion is recorded in the self-audit trail on database init.
const SchemaVersion = "1"

const (
	tableCheckRuns  = "check_runs"
	tableViolations = "violations"
	tableSelfAudits = "self_audits"
)

var (
	// checkRunsColumns holds the columns for the "check_runs" table.
	checkRunsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36, Unique: true},
		{Name: "session_id", Type: field.TypeString, Size: 36},
		{Name: "operation", Type: field.TypeEnum, Enums: []string{"startChecks", "checkAll", "check"}},
		{Name: "check_kind", Type: field.TypeString, Nullable: true},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime},
		{Name: "passed", Type: field.TypeBool, Default: false},
		{Name: "terminated", Type: field.TypeBool, Default: false},
		{Name: "aborted", Type: field.TypeBool, Default: false},
		{Name: "message", Type: field.TypeString, Nullable: true, Size: 2147483647},
	}
	// checkRunsTable holds the schema information for the "check_runs" table.
	checkRunsTable = &schema.Table{
		Name:       tableCheckRuns,
		Columns:    checkRunsColumns,
		PrimaryKey: []*schema.Column{checkRunsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "checkrun_started_at", Unique: false, Columns: []*schema.Column{checkRunsColumns[4]}},
			{Name: "checkrun_session_id", Unique: false, Columns: []*schema.Column{checkRunsColumns[1]}},
		},
	}

	// violationsColumns holds the columns for the "violations" table.
	violationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36, Unique: true},
		{Name: "sequence", Type: field.TypeInt},
		{Name: "check_kind", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "message", Type: field.TypeString, Size: 2147483647},
		{Name: "level", Type: field.TypeEnum, Enums: []string{"WARNING", "ERROR"}},
		{Name: "raw_severity", Type: field.TypeEnum, Enums: []string{"warning", "critical"}},
		{Name: "report_severity", Type: field.TypeString, Nullable: true},
		{Name: "fault", Type: field.TypeBool, Default: false},
		{Name: "continued", Type: field.TypeBool, Default: false},
		{Name: "run_id", Type: field.TypeString, Size: 36},
	}
	// violationsTable holds the schema information for the "violations" table.
	violationsTable = &schema.Table{
		Name:       tableViolations,
		Columns:    violationsColumns,
		PrimaryKey: []*schema.Column{violationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "violations_check_runs_violations",
				Columns:    []*schema.Column{violationsColumns[10]},
				RefColumns: []*schema.Column{checkRunsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "violation_run_id_sequence", Unique: true, Columns: []*schema.Column{violationsColumns[10], violationsColumns[1]}},
			{Name: "violation_check_kind", Unique: false, Columns: []*schema.Column{violationsColumns[2]}},
		},
	}

	// selfAuditsColumns holds the columns for the "self_audits" table.
	selfAuditsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "action", Type: field.TypeString},
		{Name: "check_kind", Type: field.TypeString, Nullable: true},
		{Name: "details", Type: field.TypeJSON, Nullable: true},
		{Name: "result", Type: field.TypeEnum, Enums: []string{"success", "error", "skipped"}, Default: "success"},
		{Name: "error_message", Type: field.TypeString, Nullable: true},
		{Name: "tool_version", Type: field.TypeString},
	}
	// selfAuditsTable holds the schema information for the "self_audits" table.
	selfAuditsTable = &schema.Table{
		Name:       tableSelfAudits,
		Columns:    selfAuditsColumns,
		PrimaryKey: []*schema.Column{selfAuditsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "selfaudit_timestamp", Unique: false, Columns: []*schema.Column{selfAuditsColumns[1]}},
			{Name: "selfaudit_action", Unique: false, Columns: []*schema.Column{selfAuditsColumns[2]}},
		},
	}

	// tables holds all the tables in the schema.
	tables = []*schema.Table{
		checkRunsTable,
		violationsTable,
		selfAuditsTable,
	}
)

func init() {
	violationsTable.ForeignKeys[0].RefTable = checkRunsTable
}
