package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe は管理APIサーバーとして起動する。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションの定期削除を行う常駐プロセスとして起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandCleanupSessions は期限切れセッションを1回だけ削除して終了する。
	// cronなど外部スケジューラからの実行用。
	CommandCleanupSessions Command = "cleanup-sessions"
	// CommandHealthcheck はdistroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	string(CommandServe):           CommandServe,
	string(CommandWorker):          CommandWorker,
	string(CommandMigrate):         CommandMigrate,
	string(CommandCleanupSessions): CommandCleanupSessions,
	string(CommandHealthcheck):     CommandHealthcheck,
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
