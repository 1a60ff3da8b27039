package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Run level messages (info)
		"Starting run %s: %d targets against %s":            "実行 %s を開始します: %d 件のターゲット (%s)",
		"[%d/%d] Capturing %s":                              "[%d/%d] %s をキャプチャ中",
		"Captured %s -> %s (%d ms)":                         "%s をキャプチャしました -> %s (%d ms)",
		"Run finished: %d succeeded, %d failed, %d skipped": "実行完了: 成功 %d 件, 失敗 %d 件, スキップ %d 件",
		"Interrupted, shutting down...":                     "中断されました。シャットダウン中...",
		"Summary written to %s":                             "サマリーを %s に書き出しました",
		"Run recorded in history: %s":                       "実行履歴に記録しました: %s",
		"Debug output enabled: %s":                          "デバッグ出力が有効です: %s",
		"Configuration is valid: %d targets":                "設定は有効です: %d 件のターゲット",

		// Navigate stage
		"Setting viewport %dx%d (scale %.2f)": "ビューポートを %dx%d (倍率 %.2f) に設定",
		"Navigating to %s (wait until %s)":    "%s へ移動中 (待機条件: %s)",
		"Action %d/%d: %s":                    "アクション %d/%d: %s",

		// Stabilize stage
		"Freezing time at %s":               "時刻を %s に固定します",
		"Suppressing animations on %s":      "%s のアニメーションを停止します",
		"Waiting for fonts on %s":           "%s のフォント読み込みを待機中",
		"Font set status: %s":               "フォントの状態: %s",
		"Waiting for readiness selector %s": "準備完了セレクタ %s を待機中",

		// Capture stage
		"Capturing %s (full page: %t, %s)": "%s をキャプチャ中 (フルページ: %t, %s)",
		"Wrote %s (%d bytes, changed: %t)": "%s を書き出しました (%d バイト, 変更: %t)",

		// Warnings
		"Target %s failed: %s":                         "ターゲット %s が失敗しました: %s",
		"Run cancelled, skipping %d remaining targets": "実行がキャンセルされました。残り %d 件をスキップします",
		"Fail-fast: skipping %d remaining targets":     "失敗したため残り %d 件をスキップします",
		"Failed to close browser: %s":                  "ブラウザの終了に失敗しました: %s",
		"Failed to record history: %s":                 "実行履歴の記録に失敗しました: %s",
		"Failed to write summary: %s":                  "サマリーの書き出しに失敗しました: %s",

		// Failure artifacts (debug)
		"Failed to close page for %s: %s":              "%s のページを閉じられませんでした: %s",
		"Failed to read page HTML for %s: %s":          "%s のページHTMLを取得できませんでした: %s",
		"Failed to save page HTML for %s: %s":          "%s のページHTMLを保存できませんでした: %s",
		"Failed to take failure screenshot for %s: %s": "%s の失敗時スクリーンショットを撮影できませんでした: %s",
		"Failed to save failure screenshot for %s: %s": "%s の失敗時スクリーンショットを保存できませんでした: %s",

		// Errors
		"Invalid configuration: %s":    "設定が不正です: %s",
		"Failed to launch browser: %s": "ブラウザの起動に失敗しました: %s",
	})
}
