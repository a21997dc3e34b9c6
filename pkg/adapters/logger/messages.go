package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Surface pool
		"Added %d surfaces at %s (%d managed)":                             "%[2]s のサーフェスを %[1]d 個追加しました (管理数 %[3]d)",
		"Coded resolution set to %s, purged %d free surfaces (%d managed)": "符号化解像度を %s に設定し、空きサーフェス %d 個を破棄しました (管理数 %d)",
		"Failed to destroy surface %d: %v":                                 "サーフェス %d の破棄に失敗しました: %v",
		"Failed to close replaced surface pool: %v":                        "置き換えられたサーフェスプールのクローズに失敗しました: %v",
		"Created %d %s surfaces at %s (hint 0x%x)":                         "%[3]s の %[2]s サーフェスを %[1]d 個作成しました (ヒント 0x%[4]x)",

		// Negotiation
		"Reusing session %s, stream parameters unchanged":      "セッション %s を再利用します (ストリームパラメータに変更なし)",
		"Reusing session %s across resolution change %s -> %s": "解像度変更 %[2]s -> %[3]s でセッション %[1]s を再利用します",
		"Created session %s for %s %s at %s":                   "%[2]s %[3]s (%[4]s) 用にセッション %[1]s を作成しました",
		"Negotiated %s %s at %s, output %s via %s":             "%s %s (%s) をネゴシエートしました。出力 %s (経由 %s)",
		"Failed to destroy config: %v":                         "デコード設定の破棄に失敗しました: %v",
		"Session %s destroyed":                                 "セッション %s を破棄しました",
		"Failed to destroy context of session %s: %v":          "セッション %s のコンテキスト破棄に失敗しました: %v",
		"Failed to destroy config of session %s: %v":           "セッション %s のデコード設定破棄に失敗しました: %v",

		// Device
		"Opened %s on %s":                 "%[2]s で %[1]s を開きました",
		"Device closed":                   "デバイスを閉じました",
		"Failed to terminate display: %v": "ディスプレイの終了に失敗しました: %v",

		// Playback
		"Decoding %s at %s with %d surfaces": "%[2]s の %[1]s を %[3]d 個のサーフェスでデコード中",
		"Interrupted, shutting down...":      "中断されました。終了しています...",

		// Frame output
		"Wrote %d frames to %s":      "%d フレームを %s に書き込みました",
		"Wrote preview %s":           "プレビュー %s を書き込みました",
		"Failed to write output: %s": "出力の書き込みに失敗しました: %s",
	})
}
