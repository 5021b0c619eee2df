package main

const reportCSS = `
:root { --ink:#2c3e50; --muted:#7f8c8d; --line:#e4e8eb; --bg:#f6f8f9; }
* { box-sizing:border-box; }
body { font-family:-apple-system,'Segoe UI',Roboto,sans-serif; margin:0; background:var(--bg); color:var(--ink); }
.wrap { max-width:1180px; margin:0 auto; padding:24px; }
header.page { background:var(--ink); color:#fff; padding:28px 0; }
header.page .wrap { padding-top:0; padding-bottom:0; }
header.page h1 { margin:0 0 4px; font-size:26px; }
header.page .sub { color:#aeb9c2; font-size:14px; }
h2 { font-size:18px; margin:28px 0 12px; }
.cards { display:grid; grid-template-columns:repeat(auto-fit,minmax(240px,1fr)); gap:14px; }
.card { background:#fff; border:1px solid var(--line); border-radius:8px; padding:16px; }
.card h3 { margin:0 0 10px; font-size:14px; color:var(--muted); text-transform:uppercase; letter-spacing:.04em; }
.kpi { display:flex; justify-content:space-between; padding:3px 0; font-size:14px; }
.kpi b { font-variant-numeric:tabular-nums; }
.sys { border-left:5px solid; }
.sys .count { font-size:28px; font-weight:700; }
.badge { display:inline-block; padding:2px 8px; border-radius:10px; color:#fff; font-size:11px; margin:2px 3px 2px 0; }
table { width:100%; border-collapse:collapse; background:#fff; border:1px solid var(--line); border-radius:8px; overflow:hidden; }
th,td { padding:8px 10px; text-align:left; font-size:13px; border-bottom:1px solid var(--line); }
th { background:#edf1f3; cursor:pointer; user-select:none; white-space:nowrap; }
tr:last-child td { border-bottom:none; }
td.num,th.num { text-align:right; font-variant-numeric:tabular-nums; }
.pos { color:#27ae60; } .neg { color:#c0392b; } .zero { color:var(--muted); } .na { color:#b0b8bd; }
a { color:#2980b9; text-decoration:none; } a:hover { text-decoration:underline; }
input.filter { padding:8px 12px; border:1px solid var(--line); border-radius:6px; width:280px; font-size:14px; margin-bottom:10px; }
.hero { font-size:42px; font-weight:700; }
.bars { display:flex; align-items:flex-end; gap:1px; height:90px; background:#fff; border:1px solid var(--line); border-radius:8px; padding:8px; }
.bars .bar { flex:1; background:#3498db; min-height:1px; border-radius:1px 1px 0 0; }
.split { display:flex; height:22px; border-radius:6px; overflow:hidden; font-size:11px; color:#fff; }
.split div { display:flex; align-items:center; justify-content:center; white-space:nowrap; overflow:hidden; }
.split .instr { background:#27ae60; } .split .prac { background:#2980b9; }
.split .test { background:#9b59b6; } .split .elit { background:#16a085; } .split .admin { background:#95a5a6; }
.alert { background:#fdecea; border:1px solid #f5c6cb; border-left:5px solid #c0392b; border-radius:8px; padding:12px 16px; margin:12px 0; font-size:14px; }
.nav { display:flex; justify-content:space-between; margin:18px 0; font-size:14px; }
.tag { display:inline-block; background:#edf1f3; color:var(--ink); border-radius:4px; padding:2px 8px; font-size:12px; margin-right:4px; }
.students-list { font-size:13px; line-height:1.9; }
footer { color:var(--muted); font-size:12px; margin:30px 0 10px; text-align:center; }
`

const dashboardJS = `
function filterStudents() {
  var q = document.getElementById('filter').value.toLowerCase();
  document.querySelectorAll('#students tbody tr').forEach(function (tr) {
    tr.style.display = tr.textContent.toLowerCase().indexOf(q) >= 0 ? '' : 'none';
  });
}
function sortStudents(col, th) {
  var tbody = document.querySelector('#students tbody');
  var rows = Array.prototype.slice.call(tbody.rows);
  var asc = th.dataset.asc !== 'true';
  th.dataset.asc = asc;
  rows.sort(function (a, b) {
    var av = a.cells[col].dataset.v !== undefined ? a.cells[col].dataset.v : a.cells[col].textContent;
    var bv = b.cells[col].dataset.v !== undefined ? b.cells[col].dataset.v : b.cells[col].textContent;
    var an = parseFloat(av), bn = parseFloat(bv);
    if (!isNaN(an) && !isNaN(bn)) { return asc ? an - bn : bn - an; }
    return asc ? av.localeCompare(bv) : bv.localeCompare(av);
  });
  rows.forEach(function (r) { tbody.appendChild(r); });
}
`

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Report.Subject}} Growth Audit</title>
<style>{{.CSS}}</style>
</head>
<body>
<header class="page"><div class="wrap">
<h1>{{.Report.Subject}} Growth Audit</h1>
<div class="sub">Term {{.Report.TermStart}} to {{.Report.TermEnd}} ·
{{.Report.EffectiveDays}} effective school days ·
{{.Report.ExpectedMinutes}} expected minutes per student ·
generated {{.Report.GeneratedAt.Format "2006-01-02 15:04"}}</div>
</div></header>
<div class="wrap">

<h2>Cohorts</h2>
<div class="cards">
{{range .Cohorts}}
<div class="card">
<h3>{{.Label}}</h3>
<div class="kpi"><span>Students</span><b>{{.Count}}</b></div>
<div class="kpi"><span>Avg growth</span><b class="{{growthClass .AvgGrowth}}">{{optNum .AvgGrowth}}</b></div>
<div class="kpi"><span>Met 2x target</span><b>{{pct .MetTwoXPct}}</b></div>
<div class="kpi"><span>Negative growth</span><b>{{.NegCount}}</b></div>
<div class="kpi"><span>Avg time on task</span><b>{{pct .AvgPctExpected}}</b></div>
<div class="kpi"><span>Flagged</span><b>{{.Flagged}}</b></div>
</div>
{{end}}
</div>

{{if .Report.Systemic}}
<h2>Systemic Patterns</h2>
<div class="cards">
{{range .Report.Systemic}}
<div class="card sys" style="border-left-color:{{.Color}}">
<h3>{{.Title}}</h3>
<div class="count">{{.Count}} students</div>
<p style="font-size:13px;color:#7f8c8d">{{.Desc}}</p>
{{range .Details}}<div class="kpi"><span>{{.Label}}</span><b>{{.Value}}</b></div>{{end}}
<div class="kpi"><span>Avg growth in group</span><b>{{optNum .AvgGrowth}}</b></div>
</div>
{{end}}
</div>
{{end}}

{{if .IssueCards}}
<h2>Flags</h2>
<div class="cards">
{{range .IssueCards}}
<div class="card sys" style="border-left-color:{{.Meta.Color}}">
<h3>{{.Meta.Title}} ({{len .Students}})</h3>
<p style="font-size:13px;color:#7f8c8d">{{.Meta.Desc}}</p>
<div class="students-list">
{{range .Students}}<a href="students/{{.Slug}}.html">{{.Name}}</a> <span class="{{growthClass .Growth}}">{{optNum .Growth}}</span><br>{{end}}
</div>
</div>
{{end}}
</div>
{{end}}

<h2>Campuses</h2>
<table>
<thead><tr><th>Campus</th><th class="num">Students</th><th>Levels</th>
<th class="num">Avg growth</th><th class="num">Negative</th>
<th class="num">Met 2x</th><th class="num">Flagged</th></tr></thead>
<tbody>
{{range .Report.Campuses}}
<tr><td>{{.Campus}}</td><td class="num">{{.Count}}</td><td>{{.Levels}}</td>
<td class="num {{growthClass .AvgGrowth}}">{{optNum .AvgGrowth}}</td>
<td class="num">{{.NegCount}}</td><td class="num">{{pct .PctMetTwoX}}</td>
<td class="num">{{pct .FlaggedPct}}</td></tr>
{{end}}
</tbody>
</table>

<h2>Students</h2>
<input class="filter" id="filter" type="search" placeholder="Filter by name, campus, flag…" oninput="filterStudents()">
<table id="students">
<thead><tr>
<th onclick="sortStudents(0,this)">Name</th>
<th onclick="sortStudents(1,this)">Campus</th>
<th onclick="sortStudents(2,this)">Level</th>
<th onclick="sortStudents(3,this)">Band</th>
<th class="num" onclick="sortStudents(4,this)">HMG</th>
<th class="num" onclick="sortStudents(5,this)">Growth</th>
<th class="num" onclick="sortStudents(6,this)">Time %</th>
<th class="num" onclick="sortStudents(7,this)">Test %</th>
<th onclick="sortStudents(8,this)">Flags</th>
</tr></thead>
<tbody>
{{range .Report.Students}}
<tr>
<td><a href="students/{{.Slug}}.html">{{.Name}}</a></td>
<td>{{.Campus}}</td>
<td>{{.LevelDisplay}}</td>
<td>{{.ReadingBand}}</td>
<td class="num" data-v="{{optNum .HMG}}">{{optNum .HMG}}</td>
<td class="num {{growthClass .Growth}}" data-v="{{optNum .Growth}}">{{optNum .Growth}}</td>
<td class="num" data-v="{{num .PctExpected}}">{{pct .PctExpected}}</td>
<td class="num" data-v="{{num .PctTesting}}">{{pct .PctTesting}}</td>
<td>{{range .Issues}}{{$m := meta .}}<span class="badge" style="background:{{$m.Color}}">{{$m.Title}}</span>{{end}}</td>
</tr>
{{end}}
</tbody>
</table>

<footer>{{len .Report.Students}} students · {{.Report.MalformedValues}} malformed source values coerced or skipped</footer>
</div>
<script>{{.JS}}</script>
</body>
</html>
`

const studentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.M.Name}} · {{.Report.Subject}} Growth Audit</title>
<style>{{.CSS}}</style>
</head>
<body>
<header class="page"><div class="wrap">
<h1>{{.M.Name}}</h1>
<div class="sub">{{.M.Campus}} · {{.M.LevelDisplay}} · band {{.M.ReadingBand}}
{{if .M.EarlyLit}} · early literacy track{{end}}</div>
</div></header>
<div class="wrap">

<div class="nav">
<span>{{if .Prev}}<a href="{{.Prev.Slug}}.html">← {{.Prev.Name}}</a>{{end}}</span>
<a href="../index.html">Dashboard</a>
<span>{{if .Next}}<a href="{{.Next.Slug}}.html">{{.Next.Name}} →</a>{{end}}</span>
</div>

<div>
{{range .M.Issues}}{{$m := meta .}}<span class="badge" style="background:{{$m.Color}}" title="{{$m.Desc}}">{{$m.Title}}</span>{{end}}
{{if .M.MetTwoX}}<span class="tag">Met 2x growth</span>{{end}}
{{range .M.DoomGrades}}<span class="tag">Doom loop G{{.}}</span>{{end}}
</div>

<h2>Growth</h2>
<div class="cards">
<div class="card">
<h3>Score Growth</h3>
<div class="hero {{growthClass .M.Growth}}">{{optNum .M.Growth}}</div>
<div class="kpi"><span>Fall score</span><b>{{optNum .M.FallScore}}</b></div>
<div class="kpi"><span>Winter score</span><b>{{optNum .M.WinterScore}}</b></div>
<div class="kpi"><span>Projected score</span><b>{{optNum .M.ProjectedScore}}</b></div>
<div class="kpi"><span>Projected growth</span><b>{{optNum .M.ProjectedGrowth}}</b></div>
<div class="kpi"><span>Growth after retake</span><b>{{optNum .M.GrowthRetake}}</b></div>
</div>
<div class="card">
<h3>Mastery</h3>
<div class="kpi"><span>Highest mastered grade</span><b>{{optNum .M.HMG}}</b></div>
<div class="kpi"><span>Working grade</span><b>{{optInt .M.ReadingGrade}}</b></div>
<div class="kpi"><span>Age grade</span><b>{{optInt .M.AgeGrade}}</b></div>
<div class="kpi"><span>Gap to age grade</span><b class="{{growthClass .M.Gap}}">{{optNum .M.Gap}}</b></div>
<div class="kpi"><span>Placement grade</span><b>{{optNum .M.PlacementGrade}}</b></div>
<div class="kpi"><span>Grades mastered this term</span><b>{{.M.GradesMastered}}</b></div>
</div>
<div class="card">
<h3>Year Over Year</h3>
<div class="kpi"><span>Prior spring score</span><b>{{optNum .M.SpringScore}}</b></div>
<div class="kpi"><span>Summer slide</span><b class="{{growthClass .M.SummerSlide}}">{{optNum .M.SummerSlide}}</b></div>
</div>
</div>

<h2>Time on Task</h2>
{{if .M.HasActivity}}
<div class="cards">
<div class="card">
<h3>Minutes</h3>
<div class="kpi"><span>Active minutes</span><b>{{num .M.ActiveMinutes}}</b></div>
<div class="kpi"><span>% of expected</span><b>{{pct .M.PctExpected}}</b></div>
<div class="kpi"><span>Daily average</span><b>{{num .M.DailyAvg}} min</b></div>
<div class="kpi"><span>Inactive minutes</span><b>{{num .M.InactiveMinutes}}</b></div>
</div>
{{if gt .M.WasteMinutes 0.0}}
<div class="card sys" style="border-left-color:#e67e22">
<h3>Waste</h3>
<div class="count">{{num .M.WasteMinutes}} min</div>
<p style="font-size:13px;color:#7f8c8d">Time logged in apps with no learning signal.
{{pct .M.PctNonActive}} of all logged minutes were not active learning.</p>
</div>
{{end}}
</div>

<h2>Daily Activity</h2>
<div class="bars">
{{$max := .MaxDayMin}}
{{range .M.DailyTimeline}}<div class="bar" style="height:{{barPct .Minutes $max}}%" title="{{.Date}}: {{num .Minutes}} min"></div>{{end}}
</div>

<h2>Where the XP Went</h2>
<div class="split">
{{if gt .M.PctInstruction 0.0}}<div class="instr" style="width:{{num .M.PctInstruction}}%">Instruction {{pct .M.PctInstruction}}</div>{{end}}
{{if gt .M.PctPractice 0.0}}<div class="prac" style="width:{{num .M.PctPractice}}%">Practice {{pct .M.PctPractice}}</div>{{end}}
{{if gt .M.PctTesting 0.0}}<div class="test" style="width:{{num .M.PctTesting}}%">Testing {{pct .M.PctTesting}}</div>{{end}}
</div>
<p style="font-size:12px;color:#7f8c8d">Total XP {{num .M.TotalXP}} · instruction {{num .M.InstructionXP}} · practice {{num .M.PracticeXP}} · testing {{num .M.TestingXP}} · early lit {{num .M.EarlyLitXP}} · admin/other {{num .M.AdminXP}}</p>

<table>
<thead><tr><th>App</th><th>Category</th><th class="num">XP</th><th class="num">% of XP</th>
<th class="num">Minutes</th><th class="num">Mastered</th><th class="num">Accuracy</th></tr></thead>
<tbody>
{{range .M.AppBreakdown}}
<tr><td>{{.App}}</td><td>{{.Category}}</td><td class="num">{{num .XP}}</td>
<td class="num">{{pct .PctXP}}</td>
<td class="num">{{num .Minutes}}</td><td class="num">{{.Mastered}}</td>
<td class="num">{{if .TotalQuestions}}{{pct .Accuracy}}{{else}}—{{end}}</td></tr>
{{end}}
</tbody>
</table>
{{else}}
<p>No activity recorded this term.</p>
{{end}}

<h2>Tests</h2>
{{if .M.HasTests}}
{{if .M.DoomGrades}}
<div class="alert"><b>Doom loop:</b> failed grade{{if gt (len .M.DoomGrades) 1}}s{{end}}
{{range $i, $g := .M.DoomGrades}}{{if $i}}, {{end}}G{{$g}}{{end}}
three or more times without a pass.</div>
{{end}}
<div class="cards">
<div class="card">
<h3>All Attempts</h3>
<div class="kpi"><span>Total</span><b>{{.M.TotalTests}}</b></div>
<div class="kpi"><span>Passed</span><b>{{.M.PassedTests}}</b></div>
<div class="kpi"><span>Pass rate</span><b>{{pct .M.PassRate}}</b></div>
</div>
{{if .M.HMGPlus1Total}}
<div class="card">
<h3>Next Grade Up</h3>
<div class="kpi"><span>Attempts</span><b>{{.M.HMGPlus1Total}}</b></div>
<div class="kpi"><span>Passed</span><b>{{.M.HMGPlus1Passed}}</b></div>
<div class="kpi"><span>Pass rate</span><b>{{pct .M.HMGPlus1PassRate}}</b></div>
<div class="kpi"><span>Distinct test days</span><b>{{.M.HMGPlus1TestDays}}</b></div>
</div>
{{end}}
</div>
<table>
<thead><tr><th>Date</th><th>Test</th><th class="num">Grade</th><th class="num">Score</th>
<th>Result</th><th>Type</th><th>Origin</th></tr></thead>
<tbody>
{{range .M.TestHistory}}
<tr><td>{{.Date}}</td><td>{{.TestName}}</td><td class="num">{{optInt .Grade}}</td>
<td class="num">{{optNum .Score}}</td>
<td class="{{if .Passed}}pos{{else}}neg{{end}}">{{if .Passed}}pass{{else}}{{if .Score}}fail{{else}}—{{end}}{{end}}</td>
<td>{{.Type}}</td><td>{{.Origin}}</td></tr>
{{end}}
</tbody>
</table>
{{else}}
<p>No test attempts recorded this term.</p>
{{end}}

{{if or .M.Comments .M.CurrentPrediction .M.DeepDive}}
<h2>Session Notes</h2>
<div class="card">
{{if .M.CurrentPrediction}}<div class="kpi"><span>Current prediction</span><b>{{.M.CurrentPrediction}}</b></div>{{end}}
{{if .M.DeepDive}}<div class="kpi"><span>Deep dive</span><b>{{.M.DeepDive}}</b></div>{{end}}
{{if .M.RushedTest}}<div class="kpi"><span>Rushed test</span><b>{{.M.RushedTest}}</b></div>{{end}}
{{if .M.RetakeRecommended}}<div class="kpi"><span>Retake recommended</span><b>{{.M.RetakeRecommended}}</b></div>{{end}}
{{if .M.PredictionValid}}<div class="kpi"><span>Prediction valid</span><b>{{.M.PredictionValid}}</b></div>{{end}}
{{if .M.PutInTime}}<div class="kpi"><span>Put in time</span><b>{{.M.PutInTime}}</b></div>{{end}}
{{if .M.EarnedXP}}<div class="kpi"><span>Earned XP</span><b>{{.M.EarnedXP}}</b></div>{{end}}
{{if .M.AccuracyFlag}}<div class="kpi"><span>Accuracy</span><b>{{.M.AccuracyFlag}}</b></div>{{end}}
{{if .M.MasteredOne}}<div class="kpi"><span>Mastered a grade</span><b>{{.M.MasteredOne}}</b></div>{{end}}
{{if .M.Comments}}<p style="font-size:13px">{{.M.Comments}}</p>{{end}}
</div>
{{end}}

<div class="nav">
<span>{{if .Prev}}<a href="{{.Prev.Slug}}.html">← {{.Prev.Name}}</a>{{end}}</span>
<a href="../index.html">Dashboard</a>
<span>{{if .Next}}<a href="{{.Next.Slug}}.html">{{.Next.Name}} →</a>{{end}}</span>
</div>

<footer>Generated {{.Report.GeneratedAt.Format "2006-01-02 15:04"}}</footer>
</div>
</body>
</html>
`
