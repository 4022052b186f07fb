package migrate

import "testing"

func TestSplitStatements(t *testing.T) {
	src := `
		create table t (id text primary key);
		insert into t(id) values ('a;b');
		update t set id = 'c' where id = 'a;b';
	`
	stmts := splitStatements(src)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[1] != `insert into t(id) values ('a;b')` {
		t.Fatalf("semicolon inside string literal was split: %q", stmts[1])
	}
}

func TestListSQLMissingDir(t *testing.T) {
	names, err := listSQL("does/not/exist", ".sql")
	if err != nil || names != nil {
		t.Fatalf("missing dir should be empty, got %v, %v", names, err)
	}
}
