// Package main provides localization for the docshot CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Run":     "実行",
		"Browser": "ブラウザ設定",
		"Output":  "出力先",
		"Debug":   "デバッグ",
		"Logging": "ログ",

		// Root command
		"Capture deterministic screenshots for documentation":                                                                     "ドキュメント用の再現性のあるスクリーンショットを撮影",
		"docshot drives a headless browser through a list of pages and writes stable screenshots for embedding in documentation.": "docshotはヘッドレスブラウザでページ一覧を巡回し、ドキュメントに埋め込むための安定したスクリーンショットを書き出します。",

		// Commands
		"Capture screenshots of every configured target":                      "設定された全ターゲットのスクリーンショットを撮影",
		"Check the configuration and target list without launching a browser": "ブラウザを起動せずに設定とターゲット一覧を検証",
		"Show recorded runs, or the digests of one target across runs":        "記録された実行、または1ターゲットの実行ごとのダイジェストを表示",

		// Shared flags
		"Path to the YAML configuration file":        "YAML設定ファイルのパス",
		"Only capture the named target (repeatable)": "指定した名前のターゲットのみ撮影（複数指定可）",

		// Capture flags
		"Stop after the first failed target":         "最初に失敗したターゲットで停止",
		"Browser engine (chromedp, playwright, rod)": "ブラウザエンジン（chromedp, playwright, rod）",
		"Run browser in non-headless mode":           "ブラウザを非ヘッドレスモードで実行",
		"Path to Chrome executable":                  "Chrome実行ファイルのパス",
		"Write a markdown summary to this file":      "Markdownサマリーをこのファイルに書き出す",
		"Record the run in this sqlite database":     "実行をこのSQLiteデータベースに記録",
		"Save artifacts of failed targets":           "失敗したターゲットの資料を保存",
		"Directory for debug output":                 "デバッグ出力のディレクトリ",
		"Log level (debug, info, warn, error)":       "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                    "全てのログ出力を抑制",
		"Also write logs to this file (rotated)":     "ログをこのファイルにも書き出す（ローテーションあり）",

		// History flags
		"Path to the sqlite history database": "SQLite履歴データベースのパス",
		"Show the history of this target":     "このターゲットの履歴を表示",
		"Maximum number of entries":           "最大件数",

		// Runtime messages
		"Configuration file not found: %s":    "設定ファイルが見つかりません: %s",
		"No runs recorded":                    "記録された実行はありません",
		"(cancelled)":                         "（中断）",
		"%d succeeded, %d failed, %d skipped": "成功 %d、失敗 %d、スキップ %d",
		"No history for target %s":            "ターゲット %s の履歴はありません",
		"%d distinct digests in %d runs":      "%[2]d 回の実行で %[1]d 種類のダイジェスト",
	})
}
