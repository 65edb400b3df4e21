package config

// DefaultYAML is written to the user config directory on first run.
const DefaultYAML = `# Kokoro narrator voice, see "epub2tts voices"
voice: "af_heart"
# reading speed, 0.5 to 2.0
speed: 1.3
# silence after each paragraph and after each chapter
paragraph_pause_ms: 600
chapter_pause_ms: 2000
# read chapter titles before the first paragraph
titles: true
# directory for intermediate WAV files (default: current directory)
workdir: ""

# synthesis engine: exec (kokoro bridge), piper, openai, edge or mock
engine: "exec"

tts:
  # auto, cpu, cuda, xpu, mps or rocm
  device: "auto"

  # exec runs a command per request, JSON on stdin, JSON lines on stdout
  exec:
    command: "python3 -m kokoro_bridge"
    # env: ["PYTORCH_ENABLE_MPS_FALLBACK=1"]
    timeout: "2m"

  piper:
    binary: "piper"
    # model: "~/voices/en_US-lessac-medium.onnx"
    # config: "~/voices/en_US-lessac-medium.onnx.json"
    # speaker: "0"
    timeout: "2m"

  # the API key is read from OPENAI_API_KEY
  openai:
    model: "tts-1"
    voice: "alloy"
    # base_url: "https://api.openai.com/v1"
    rpm: 0

  edge:
    # voice: "en-US-AriaNeural"
    rpm: 0

# reuse synthesized audio across runs
cache:
  enabled: false
  # dir: "~/.cache/epub2tts/synth"
  max_size: 536870912

resume:
  # sqlite keeps .epub2tts/checkpoint.db in the working directory
  ledger: "sqlite"
  # regenerate artifacts made with different settings
  verify: false

ffmpeg:
  binary: "ffmpeg"
  keep_chapters: false

log:
  level: "info"
  # file: "~/.local/state/epub2tts/epub2tts.log"
`
