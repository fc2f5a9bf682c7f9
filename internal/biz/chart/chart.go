package chart

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mather/internal/conf"

	"github.com/google/wire"
	jsoniter "github.com/json-iterator/go"
)

var ProviderSet = wire.NewSet(NewGenerator)

var chromeCache string

// SampleMax 单张图最多保留的点数
const SampleMax = 5000

// IGenerator 图表生成接口
type IGenerator interface {
	Generate(in Input, saveLocal bool) (*GenerateResult, error)
}

// Point 图表数据点
type Point struct {
	X    float64 // 局数（万）
	Y    float64 // 累计 RTP
	Time string  // 时间
}

// Input 单个任务的 RTP 收敛曲线
type Input struct {
	Points   []Point
	TaskID   string
	GameName string
	Mode     string
	Target   float64 // 目标 RTP
}

// GenerateResult 生成结果
type GenerateResult struct {
	HTMLContent string // HTML 内容
	FilePath    string // 文件路径（saveLocal=false 时为空）
}

// Generator 图表生成器
type Generator struct {
	outputDir string
}

func NewGenerator(c *conf.Sim) IGenerator {
	dir := "./rtp_charts"
	if c != nil && c.Chart != nil && c.Chart.OutputDir != "" {
		dir = c.Chart.OutputDir
	}
	return &Generator{outputDir: dir}
}

// Generate 生成图表
// saveLocal: 是否保存本地文件（HTML/PNG）
func (g *Generator) Generate(in Input, saveLocal bool) (*GenerateResult, error) {
	pts := Sample(in.Points, SampleMax)
	if len(pts) == 0 {
		return nil, fmt.Errorf("no data")
	}

	x, y, t := make([]float64, len(pts)), make([]float64, len(pts)), make([]string, len(pts))
	xMax, yMin, yMax := 0.0, pts[0].Y, pts[0].Y
	for i, p := range pts {
		x[i], y[i], t[i] = p.X, p.Y, p.Time
		if p.X > xMax {
			xMax = p.X
		}
		if p.Y < yMin {
			yMin = p.Y
		}
		if p.Y > yMax {
			yMax = p.Y
		}
	}
	yMin = min(yMin, in.Target)
	yMax = max(yMax, in.Target)

	xJ, _ := jsoniter.Marshal(x)
	yJ, _ := jsoniter.Marshal(y)
	tJ, _ := jsoniter.Marshal(t)

	html := fmt.Sprintf(chartTpl, in.GameName, in.GameName, in.Mode, in.TaskID,
		string(xJ), string(yJ), string(tJ), xMax, yMin, yMax, in.Target,
		in.GameName, in.Mode, in.TaskID)

	result := &GenerateResult{
		HTMLContent: html,
	}

	if !saveLocal {
		return result, nil
	}

	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, err
	}

	path := filepath.Join(g.outputDir, fmt.Sprintf("%s.html", in.TaskID))
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return nil, err
	}

	renderPNG(path)
	result.FilePath = path
	return result, nil
}

// Sample 等间距采样，保留首尾
func Sample(pts []Point, limit int) []Point {
	n := len(pts)
	if n <= limit || limit < 2 {
		return pts
	}
	step := (n - 1) / (limit - 1)
	if step < 1 {
		step = 1
	}
	out := make([]Point, 0, limit)
	for i := 0; i < n && len(out) < limit-1; i += step {
		out = append(out, pts[i])
	}
	return append(out, pts[n-1])
}

func toPng(html string) string {
	return strings.TrimSuffix(html, ".html") + ".png"
}

func renderPNG(htmlPath string) {
	chrome := findChrome()
	if chrome == "" {
		return
	}
	absH, _ := filepath.Abs(htmlPath)
	absP, _ := filepath.Abs(toPng(htmlPath))
	args := []string{
		"--headless=new", "--disable-gpu", "--hide-scrollbars",
		"--window-size=1720,920", "--force-device-scale-factor=2",
		"--run-all-compositor-stages-before-draw", "--virtual-time-budget=8000",
		"--disable-web-security", "--no-sandbox",
		"--screenshot=" + absP, "file://" + absH,
	}
	if exec.Command(chrome, args...).Run() != nil {
		args[0] = "--headless"
		_ = exec.Command(chrome, args...).Run()
	}
}

func findChrome() string {
	if chromeCache != "" {
		return chromeCache
	}
	for _, p := range []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	} {
		if _, err := os.Stat(p); err == nil {
			chromeCache = p
			return p
		}
	}
	for _, name := range []string{"google-chrome", "chromium"} {
		if out, _ := exec.Command("which", name).Output(); len(out) > 0 {
			chromeCache = strings.TrimSpace(string(out))
			return chromeCache
		}
	}
	return ""
}

const chartTpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>RTP 收敛 - %s</title>
<script src="https://cdn.plot.ly/plotly-2.27.0.min.js"></script>
<style>body{font-family:'Microsoft YaHei';margin:0;padding:20px;background:#f5f5f5}.container{background:#fff;padding:20px;border-radius:8px;box-shadow:0 2px 4px rgba(0,0,0,.1)}</style>
</head>
<body>
<div class="container"><h1>游戏: %s, 模式: %s, Task: %s</h1><div id="chart"></div></div>
<script>
var xData=%s,yData=%s,timeData=%s,xMax=%f,yMin=%f,yMax=%f,target=%f;
var trace1={x:xData,y:yData,mode:'lines',name:'累计 RTP',line:{color:'#F00',width:2},customdata:timeData,hovertemplate:'局数: %%{x:.2f}万<br>RTP: %%{y:.4%%}<br>%%{customdata}<extra></extra>'};
var trace2={x:[0,xMax],y:[target,target],mode:'lines',name:'目标',line:{color:'blue',dash:'dashdot'}};
var pad=Math.max((yMax-yMin)*0.1,0.01);
var annotations=[];
var maxAnno=12;
var annoStep=Math.max(Math.ceil(xMax/maxAnno),1);
for(var m=annoStep,count=0;m<=Math.ceil(xMax)&&count<maxAnno;m+=annoStep,count++){
  var idx=0,minD=1e9;
  for(var i=0;i<xData.length;i++) if(Math.abs(xData[i]-m)<minD){minD=Math.abs(xData[i]-m);idx=i;}
  if(minD<1e9) annotations.push({x:xData[idx],y:yData[idx],text:'<b>'+m+'万</b><br>'+(yData[idx]*100).toFixed(2)+'%%',showarrow:true,ax:0,ay:-45,bgcolor:'rgba(255,255,255,.7)'});
}
var layout={title:'游戏: %s, 模式: %s, Task: %s',annotations:annotations,
  xaxis:{title:'局数(万)',showgrid:true,automargin:true,zeroline:false},
  yaxis:{title:'RTP',tickformat:'.1%%',range:[yMin-pad,yMax+pad],showgrid:true},
  font:{size:14},plot_bgcolor:'#E8F8FF',height:800,width:1600,hovermode:'closest',
  legend:{x:0.99,y:0.99,xanchor:'right'}};
Plotly.newPlot('chart',[trace1,trace2],layout,{displayModeBar:false});
</script>
</body>
</html>`
